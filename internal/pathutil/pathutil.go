// Package pathutil locates directories by name and answers segment-aware
// containment questions about paths.
package pathutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ResolveDirs resolves each entry to the directories it designates under root.
//
// An entry that names an existing path (absolute, or relative to root) resolves
// to that directory, or to its parent when it is a regular file. Otherwise the
// entry is treated as a directory name, or slash-separated trailing segments,
// and matched against every directory below root. Entries that match nothing
// contribute no directories. The result is sorted and free of duplicates.
func ResolveDirs(root string, entries []string) ([]string, error) {
	var dirs []string
	var lookup []string

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		candidate := entry
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(root, entry)
		}
		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.IsDir():
			dirs = append(dirs, filepath.Clean(candidate))
		case err == nil:
			dirs = append(dirs, filepath.Dir(candidate))
		default:
			lookup = append(lookup, entry)
		}
	}

	if len(lookup) > 0 {
		found, err := FindDirs(root, lookup...)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}

	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}

// FindDirs walks root and returns every directory whose trailing path
// segments equal one of names.
func FindDirs(root string, names ...string) ([]string, error) {
	wanted := make([][]string, 0, len(names))
	for _, n := range names {
		segs := splitSegments(n)
		if len(segs) > 0 {
			wanted = append(wanted, segs)
		}
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees cannot contain a match we can use.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		segs := splitSegments(rel)
		for _, w := range wanted {
			if hasSuffixSegments(segs, w) {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return found, nil
}

// IsWithin reports whether path equals dir or lies below it. Segment
// boundaries are respected, so "/a/bc" is not within "/a/b".
func IsWithin(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// WithinAny reports whether path is within at least one of dirs.
func WithinAny(dirs []string, path string) bool {
	return slices.ContainsFunc(dirs, func(d string) bool {
		return IsWithin(d, path)
	})
}

// BundleName returns the name of the nearest directory enclosing path whose
// name ends with suffix, with the suffix removed.
func BundleName(path, suffix string) (string, bool) {
	dir, ok := BundleDir(path, suffix)
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(filepath.Base(dir), suffix), true
}

// BundleDir returns the nearest directory enclosing path whose name ends
// with suffix.
func BundleDir(path, suffix string) (string, bool) {
	dir := filepath.Dir(path)
	for {
		if IsBundleDir(dir, suffix) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// IsBundleDir reports whether dir's own name ends with suffix.
func IsBundleDir(dir, suffix string) bool {
	base := filepath.Base(dir)
	return strings.HasSuffix(base, suffix) && len(base) > len(suffix)
}

// CheckDir returns an error wrapping fs.ErrNotExist or fs.ErrInvalid unless
// path is an existing, readable directory.
func CheckDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory: %w", path, fs.ErrInvalid)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func splitSegments(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	var segs []string
	for s := range strings.SplitSeq(p, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}
	return segs
}

func hasSuffixSegments(segs, suffix []string) bool {
	if len(suffix) > len(segs) {
		return false
	}
	return slices.Equal(segs[len(segs)-len(suffix):], suffix)
}
