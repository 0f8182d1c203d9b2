package store

import "settingsd/pkg/types"

const (
	displayBucket = "display"
	themeKey      = "theme"
	defaultTheme  = "auto"
)

// TextOr reads a text entry from the desk's merged view, falling back
// to def when the desk, bucket or entry is absent or the value is not
// text.
func (s *Store) TextOr(desk, bucket, key, def string) string {
	v, ok := s.mergedEntry(desk, bucket, key)
	if !ok || v.Kind != types.KindText {
		return def
	}
	return v.Text
}

// FlagOr reads a flag entry from the desk's merged view, falling back
// to def.
func (s *Store) FlagOr(desk, bucket, key string, def bool) bool {
	v, ok := s.mergedEntry(desk, bucket, key)
	if !ok || v.Kind != types.KindFlag {
		return def
	}
	return v.Flag
}

// Theme returns the desk's display theme, falling back to "auto".
func (s *Store) Theme(desk string) string {
	return s.TextOr(desk, displayBucket, themeKey, defaultTheme)
}

// mergedEntry resolves one entry with desk-over-global precedence
// without materializing a full merged snapshot.
func (s *Store) mergedEntry(desk, bucket, key string) (types.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if buckets, ok := s.desks[desk]; ok {
		if t, ok := buckets[bucket]; ok {
			if v, ok := t.Get(key); ok {
				return v, true
			}
		}
	}
	if desk == s.globalDesk {
		return types.Value{}, false
	}
	if buckets, ok := s.desks[s.globalDesk]; ok {
		if t, ok := buckets[bucket]; ok {
			if v, ok := t.Get(key); ok {
				return v, true
			}
		}
	}
	return types.Value{}, false
}
