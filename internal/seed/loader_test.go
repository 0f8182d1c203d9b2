package seed

import (
	"os"
	"path/filepath"
	"testing"

	"settingsd/pkg/types"
)

func writeSeed(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "garden.display.yaml", "theme: light\ncompact: false\nscale: 1.5\n")
	writeSeed(t, dir, "groups.chat.json", `{"nicknames": true, "pinned": ["a", "b"]}`)
	writeSeed(t, dir, "README.md", "not a seed")
	writeSeed(t, dir, "noextension", "nope")
	writeSeed(t, dir, "toomany.parts.here.yaml", "k: v")

	buckets, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 seed buckets got %d", len(buckets))
	}
	// sorted by filename: garden before groups
	g := buckets[0]
	if g.Desk != "garden" || g.Bucket != "display" {
		t.Fatalf("unexpected first bucket: %+v", g)
	}
	if v := g.Entries["theme"]; v.Kind != types.KindText || v.Text != "light" {
		t.Fatalf("theme: %+v", v)
	}
	if v := g.Entries["compact"]; v.Kind != types.KindFlag || v.Flag {
		t.Fatalf("compact: %+v", v)
	}
	if v := g.Entries["scale"]; v.Kind != types.KindNumber || v.Number != 1.5 {
		t.Fatalf("scale: %+v", v)
	}
	c := buckets[1]
	if c.Desk != "groups" || c.Bucket != "chat" {
		t.Fatalf("unexpected second bucket: %+v", c)
	}
	if v := c.Entries["pinned"]; v.Kind != types.KindList || len(v.List) != 2 || v.List[0] != "a" {
		t.Fatalf("pinned: %+v", v)
	}
}

func TestLoadDirBadList(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "d.b.yaml", "mixed:\n  - ok\n  - 42\n")
	if _, err := LoadDir(dir); err == nil {
		t.Fatalf("expected error for non-string list element")
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
