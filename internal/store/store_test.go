package store

import (
	"testing"

	"settingsd/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestPutGetDelEntry(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutEntry("groups", "display", "theme", types.TextValue("dark")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, err := s.GetEntry("groups", "display", "theme")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Kind != types.KindText || v.Text != "dark" {
		t.Fatalf("unexpected value: %+v", v)
	}
	if err := s.DelEntry("groups", "display", "theme"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := s.GetEntry("groups", "display", "theme"); !IsEntryNotFound(err) {
		t.Fatalf("expected entry-not-found got %v", err)
	}
}

func TestNotFoundKinds(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetBucket("nope", "b"); !IsDeskNotFound(err) {
		t.Fatalf("expected desk-not-found got %v", err)
	}
	if err := s.PutEntry("d", "b", "k", types.FlagValue(true)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.GetBucket("d", "nope"); !IsBucketNotFound(err) {
		t.Fatalf("expected bucket-not-found got %v", err)
	}
	if _, err := s.GetEntry("d", "b", "nope"); !IsEntryNotFound(err) {
		t.Fatalf("expected entry-not-found got %v", err)
	}
	if err := s.DelDesk("nope"); !IsDeskNotFound(err) {
		t.Fatalf("expected desk-not-found got %v", err)
	}
}

func TestInputValidation(t *testing.T) {
	s := newTestStore(t)
	cases := []struct {
		desk, bucket, key string
	}{
		{"", "b", "k"},
		{"d", "", "k"},
		{"d", "b", ""},
		{"d/x", "b", "k"},
		{"d", "b/x", "k"},
		{"d", "b", "k/x"},
	}
	for _, c := range cases {
		if err := s.PutEntry(c.desk, c.bucket, c.key, types.FlagValue(true)); !IsInvalidInput(err) {
			t.Fatalf("put %q/%q/%q: expected invalid-input got %v", c.desk, c.bucket, c.key, err)
		}
	}
	if err := s.PutEntry("d", "b", "k", types.Value{Kind: "mystery"}); !IsInvalidInput(err) {
		t.Fatalf("expected invalid-input for unknown kind")
	}
}

func TestPutBucketReplaces(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutEntry("d", "b", "old", types.TextValue("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutBucket("d", "b", types.Bucket{
		"one": types.NumberValue(1),
		"two": types.NumberValue(2),
	}); err != nil {
		t.Fatalf("put bucket: %v", err)
	}
	b, err := s.GetBucket("d", "b")
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if len(b) != 2 {
		t.Fatalf("expected 2 entries got %d", len(b))
	}
	if _, ok := b["old"]; ok {
		t.Fatalf("replace must drop prior entries")
	}
}

func TestDelBucketDropsEmptyDesk(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutEntry("d", "b", "k", types.FlagValue(true)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.DelBucket("d", "b"); err != nil {
		t.Fatalf("del bucket: %v", err)
	}
	if _, err := s.GetDesk("d"); !IsDeskNotFound(err) {
		t.Fatalf("desk with no buckets should be gone, got %v", err)
	}
}

func TestDesksSorted(t *testing.T) {
	s := newTestStore(t)
	for _, d := range []string{"zeta", "alpha", "mid"} {
		if err := s.PutEntry(d, "b", "k", types.FlagValue(true)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	got := s.Desks()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
}

func TestEntriesPagination(t *testing.T) {
	s := newTestStore(t)
	for _, k := range []string{"c", "a", "e", "b", "d"} {
		if err := s.PutEntry("d", "b", k, types.TextValue(k)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	bottom, err := s.BottomEntries("d", "b", 2)
	if err != nil {
		t.Fatalf("bottom: %v", err)
	}
	if len(bottom) != 2 || bottom[0].Key != "a" || bottom[1].Key != "b" {
		t.Fatalf("bottom: got %+v", bottom)
	}
	top, err := s.TopEntries("d", "b", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Key != "d" || top[1].Key != "e" {
		t.Fatalf("top: got %+v", top)
	}
	after := "b"
	page, err := s.EntriesAfter("d", "b", &after, 2)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	if len(page) != 2 || page[0].Key != "c" || page[1].Key != "d" {
		t.Fatalf("after: got %+v", page)
	}
	all, err := s.EntriesAfter("d", "b", nil, 100)
	if err != nil {
		t.Fatalf("after nil: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 entries got %d", len(all))
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	s := newTestStore(t)
	pub := NewMemoryPublisher()
	s.SetEventPublisher(pub)
	if err := s.PutEntry("d", "b", "k", types.TextValue("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.DelEntry("d", "b", "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if err := s.PutBucket("d", "b", types.Bucket{"k": types.TextValue("v")}); err != nil {
		t.Fatalf("put bucket: %v", err)
	}
	if err := s.DelBucket("d", "b"); err != nil {
		t.Fatalf("del bucket: %v", err)
	}
	evts := pub.Events()
	wantNames := []string{
		types.EventPutEntry, types.EventDelEntry,
		types.EventPutBucket, types.EventDelBucket,
	}
	if len(evts) != len(wantNames) {
		t.Fatalf("expected %d events got %+v", len(wantNames), evts)
	}
	for i, name := range wantNames {
		if evts[i].Name != name {
			t.Fatalf("event %d: expected %s got %s", i, name, evts[i].Name)
		}
		if evts[i].Path != "/d/b" {
			t.Fatalf("event %d: expected path /d/b got %s", i, evts[i].Path)
		}
	}
	if evts[0].Value == nil || evts[0].Value.Text != "v" {
		t.Fatalf("put-entry event should carry the value: %+v", evts[0])
	}
}

func TestRevisionBumpsPerMutation(t *testing.T) {
	s := newTestStore(t)
	if s.Revision() != 0 {
		t.Fatalf("fresh store revision: %d", s.Revision())
	}
	_ = s.PutEntry("d", "b", "k", types.TextValue("v"))
	_ = s.PutEntry("d", "b", "k2", types.TextValue("v"))
	_ = s.DelEntry("d", "b", "k")
	if s.Revision() != 3 {
		t.Fatalf("expected revision 3 got %d", s.Revision())
	}
	// failed mutations do not bump
	_ = s.DelEntry("d", "b", "nope")
	if s.Revision() != 3 {
		t.Fatalf("failed mutation must not bump revision, got %d", s.Revision())
	}
}

func TestSeedDoesNotClobberOrPublish(t *testing.T) {
	s := newTestStore(t)
	pub := NewMemoryPublisher()
	s.SetEventPublisher(pub)
	if err := s.PutEntry("d", "b", "k", types.TextValue("kept")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Seed("d", "b", types.Bucket{"k": types.TextValue("seeded")}); err != nil {
		t.Fatalf("seed existing: %v", err)
	}
	v, _ := s.GetEntry("d", "b", "k")
	if v.Text != "kept" {
		t.Fatalf("seed must not clobber, got %q", v.Text)
	}
	if err := s.Seed("d", "fresh", types.Bucket{"k": types.TextValue("seeded")}); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}
	if v, err := s.GetEntry("d", "fresh", "k"); err != nil || v.Text != "seeded" {
		t.Fatalf("seeded bucket missing: %v %+v", err, v)
	}
	// only the explicit PutEntry published
	if got := len(pub.Events()); got != 1 {
		t.Fatalf("seed must not publish events, got %d", got)
	}
}

func TestStatusCounts(t *testing.T) {
	s := newTestStore(t)
	_ = s.PutEntry("a", "b1", "k1", types.TextValue("v"))
	_ = s.PutEntry("a", "b1", "k2", types.TextValue("v"))
	_ = s.PutEntry("a", "b2", "k1", types.TextValue("v"))
	_ = s.PutEntry("c", "b1", "k1", types.TextValue("v"))
	st := s.Status()
	if st.Desks != 2 || st.Buckets != 3 || st.Entries != 4 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.Revision != 4 {
		t.Fatalf("expected revision 4 got %d", st.Revision)
	}
}
