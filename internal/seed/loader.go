// Package seed loads initial settings buckets from a directory.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"settingsd/internal/common/fsutil"
	"settingsd/pkg/types"
)

// Bucket is one seed file's worth of settings.
type Bucket struct {
	Desk    string
	Bucket  string
	Entries types.Bucket
}

// LoadDir scans a directory for seed files named
// <desk>.<bucket>.(yaml|yml|json) and decodes each into a Bucket.
// Files are plain key -> scalar maps; the value kind is inferred
// (string -> text, bool -> flag, number -> number, string list ->
// list). Results are sorted by filename so seeding is deterministic.
func LoadDir(dir string) ([]Bucket, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []Bucket
	for _, name := range names {
		desk, bucket, ok := splitName(name)
		if !ok {
			continue
		}
		b, err := os.ReadFile(filepath.Join(abs, name))
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", name, err)
		}
		raw := map[string]any{}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(b, &raw); err != nil {
				return nil, fmt.Errorf("parse seed %s: %w", name, err)
			}
		case ".json":
			if err := json.Unmarshal(b, &raw); err != nil {
				return nil, fmt.Errorf("parse seed %s: %w", name, err)
			}
		}
		eb := make(types.Bucket, len(raw))
		for key, v := range raw {
			val, err := inferValue(v)
			if err != nil {
				return nil, fmt.Errorf("seed %s key %s: %w", name, key, err)
			}
			eb[key] = val
		}
		out = append(out, Bucket{Desk: desk, Bucket: bucket, Entries: eb})
	}
	return out, nil
}

// splitName parses <desk>.<bucket>.<ext>; anything else is skipped.
func splitName(name string) (desk, bucket string, ok bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
	default:
		return "", "", false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func inferValue(v any) (types.Value, error) {
	switch x := v.(type) {
	case string:
		return types.TextValue(x), nil
	case bool:
		return types.FlagValue(x), nil
	case int:
		return types.NumberValue(float64(x)), nil
	case int64:
		return types.NumberValue(float64(x)), nil
	case float64:
		return types.NumberValue(x), nil
	case []any:
		xs := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return types.Value{}, fmt.Errorf("list element %d is not a string", i)
			}
			xs[i] = s
		}
		return types.ListValue(xs...), nil
	default:
		return types.Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}
