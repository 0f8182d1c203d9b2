package store

import "settingsd/pkg/types"

// Merged returns the desk's settings overlaid on the global desk's:
// the global desk's buckets form the base, and the target desk's
// entries win per (bucket, key). Buckets or keys present on only one
// side pass through unchanged. Merging the global desk with itself is
// the identity.
func (s *Store) Merged(desk string) (map[string]types.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	over, ok := s.desks[desk]
	if !ok {
		return nil, ErrDeskNotFound(desk)
	}
	if desk == s.globalDesk {
		return snapshotDesk(over), nil
	}
	out := snapshotDesk(s.desks[s.globalDesk])
	for name, t := range over {
		base, ok := out[name]
		if !ok {
			out[name] = snapshotBucket(t)
			continue
		}
		for _, it := range t.Items() {
			base[it.Key] = it.Val
		}
	}
	return out, nil
}
