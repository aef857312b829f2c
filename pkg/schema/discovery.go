package schema

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RootKind distinguishes a single-file import root from a directory root.
type RootKind string

const (
	KindDir  RootKind = "dir"
	KindFile RootKind = "file"
)

// ImportRoot names one location to search for proto sources. A disabled
// root contributes nothing to discovery.
type ImportRoot struct {
	ID      string   `json:"id"`
	Path    string   `json:"path"`
	Kind    RootKind `json:"kind"`
	Enabled bool     `json:"enabled"`
}

// Discover walks the enabled roots and returns a sorted, de-duplicated list
// of ".proto" file paths. Non-existent roots and non-proto file roots are
// reported as warnings rather than failing discovery.
func Discover(roots []ImportRoot) (files []string, warnings []string) {
	seen := make(map[string]struct{})

	for _, root := range roots {
		if !root.Enabled {
			continue
		}

		switch root.Kind {
		case KindFile:
			if !isProtoPath(root.Path) {
				warnings = append(warnings, "import root "+root.Path+" is not a .proto file, skipped")
				continue
			}
			if info, err := os.Stat(root.Path); err != nil || info.IsDir() {
				warnings = append(warnings, "import root "+root.Path+" does not exist, skipped")
				continue
			}
			if _, dup := seen[root.Path]; !dup {
				seen[root.Path] = struct{}{}
				files = append(files, root.Path)
			}

		case KindDir:
			if info, err := os.Stat(root.Path); err != nil || !info.IsDir() {
				warnings = append(warnings, "import root "+root.Path+" does not exist, skipped")
				continue
			}
			_ = filepath.WalkDir(root.Path, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil //nolint:nilerr // unreadable entries are skipped, not fatal
				}
				if d.IsDir() {
					return nil
				}
				if !isProtoPath(path) {
					return nil
				}
				if _, dup := seen[path]; !dup {
					seen[path] = struct{}{}
					files = append(files, path)
				}
				return nil
			})

		default:
			warnings = append(warnings, "import root "+root.Path+" has unknown kind "+string(root.Kind)+", skipped")
		}
	}

	sort.Strings(files)
	return files, warnings
}

func isProtoPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".proto")
}
