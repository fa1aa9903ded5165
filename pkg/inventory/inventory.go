// Package inventory discovers the resource assets declared in a project tree.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/715d/unusedasset/internal/pathutil"
)

// BundleSuffix is the directory suffix of an image asset bundle.
const BundleSuffix = ".imageset"

// densitySuffixes are stripped from resource file names before they are keyed.
var densitySuffixes = []string{"@2x", "@3x"}

// ErrRootNotFound is returned when the project root is missing or unreadable.
var ErrRootNotFound = errors.New("project root not found")

// Inventory is a snapshot of the named resources found in a project.
type Inventory struct {
	// Imagesets maps a bundle name to one file inside that bundle.
	Imagesets map[string]string `json:"imagesets"`

	// Others maps a lowercase format (extension without the dot) to
	// resource names and their file paths.
	Others map[string]map[string]string `json:"others"`
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{
		Imagesets: make(map[string]string),
		Others:    make(map[string]map[string]string),
	}
}

// Options controls which directories contribute resources.
type Options struct {
	// AdditionalDirs are paths or directory names whose files are collected
	// into Others.
	AdditionalDirs []string

	// ExcludeDirs are paths or directory names whose files never enter Others.
	ExcludeDirs []string
}

// Build walks root and returns its resource inventory.
func Build(root string, opts Options) (*Inventory, error) {
	if err := pathutil.CheckDir(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}

	inv := New()
	if err := inv.collectImagesets(root); err != nil {
		return nil, err
	}

	included, err := pathutil.ResolveDirs(root, opts.AdditionalDirs)
	if err != nil {
		return nil, fmt.Errorf("resolve additional resource dirs: %w", err)
	}
	excluded, err := pathutil.ResolveDirs(root, opts.ExcludeDirs)
	if err != nil {
		return nil, fmt.Errorf("resolve excluded resource dirs: %w", err)
	}
	slog.Debug("resolved resource dirs", "additional", included, "excluded", excluded)

	for _, dir := range included {
		if pathutil.WithinAny(excluded, dir) {
			continue
		}
		if err := inv.collectOthers(dir, excluded); err != nil {
			return nil, err
		}
	}

	slog.Info("built resource inventory",
		"imagesets", len(inv.Imagesets),
		"formats", len(inv.Others),
		"names", len(inv.Names()))
	return inv, nil
}

func (inv *Inventory) collectImagesets(root string) error {
	return walkFiles(root, func(path string) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return
		}
		if name, ok := pathutil.BundleName(rel, BundleSuffix); ok {
			inv.Imagesets[name] = path
		}
	})
}

func (inv *Inventory) collectOthers(dir string, excluded []string) error {
	return walkFiles(dir, func(path string) {
		if pathutil.WithinAny(excluded, path) {
			return
		}
		name, format, ok := SplitName(filepath.Base(path))
		if !ok {
			return
		}
		inv.Add(format, name, path)
	})
}

// Add records path under others[format][name], replacing any previous entry.
func (inv *Inventory) Add(format, name, path string) {
	byName, ok := inv.Others[format]
	if !ok {
		byName = make(map[string]string)
		inv.Others[format] = byName
	}
	byName[name] = path
}

// SplitName splits a file name on its last dot into a resource name with the
// density suffix removed and a lowercase format. It reports false for names
// without an extension or without a stem.
func SplitName(filename string) (name, format string, ok bool) {
	idx := strings.LastIndexByte(filename, '.')
	if idx <= 0 || idx == len(filename)-1 {
		return "", "", false
	}
	name = filename[:idx]
	format = strings.ToLower(filename[idx+1:])
	for _, suffix := range densitySuffixes {
		if trimmed, found := strings.CutSuffix(name, suffix); found {
			name = trimmed
			break
		}
	}
	if name == "" {
		return "", "", false
	}
	return name, format, true
}

// Names returns every distinct resource name in the inventory, sorted.
func (inv *Inventory) Names() []string {
	set := make(map[string]struct{}, len(inv.Imagesets))
	for name := range inv.Imagesets {
		set[name] = struct{}{}
	}
	for _, byName := range inv.Others {
		for name := range byName {
			set[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// Paths returns every path recorded for name: the imageset entry first, then
// one entry per format in sorted format order.
func (inv *Inventory) Paths(name string) []string {
	var paths []string
	if p, ok := inv.Imagesets[name]; ok {
		paths = append(paths, p)
	}
	for _, format := range slices.Sorted(maps.Keys(inv.Others)) {
		if p, ok := inv.Others[format][name]; ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// walkFiles calls fn for every regular file below root in lexical order.
// Unreadable subdirectories are skipped with a warning.
func walkFiles(root string, fn func(path string)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			fn(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}
