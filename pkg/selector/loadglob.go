package selector

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadMapGlob loads every file matching pattern under fsys (doublestar
// syntax: ** for recursive matching, per the teacher's own filewatcher
// pattern matcher) as a YAML selector map and merges them into one. A
// key defined in more than one matched file is an error, since that
// would silently let the last file loaded win.
func LoadMapGlob(fsys fs.FS, pattern string) (SelectorMap, error) {
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	merged := SelectorMap{}
	for _, path := range matches {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		m, err := LoadYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for key, entry := range m {
			if _, exists := merged[key]; exists {
				return nil, fmt.Errorf("%s: key %q already defined by another matched file", path, key)
			}
			merged[key] = entry
		}
	}
	return merged, nil
}
