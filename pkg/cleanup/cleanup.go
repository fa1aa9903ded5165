// Package cleanup deletes unused resources from disk.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/715d/unusedasset/internal/pathutil"
	"github.com/715d/unusedasset/pkg/inventory"
)

// ErrNotConfirmed is returned when Clean is called without confirmation.
var ErrNotConfirmed = errors.New("deletion not confirmed")

// Options configures an Executor.
type Options struct {
	// Confirmed must be set for any file to be removed.
	Confirmed bool

	// Root bounds bundle removal. A bundle directory must lie strictly below
	// Root to be removed as a whole. Empty means no bound.
	Root string

	// Logger receives one line per removed path. Defaults to slog.Default().
	Logger *slog.Logger
}

// Entry describes one removed path.
type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
	// Bundle is set when the whole asset bundle directory was removed.
	Bundle bool `json:"bundle"`
}

// Report summarizes a cleanup. Deleted counts removals, so a bundle counts
// once however many recorded paths it held; Covered counts the remaining
// paths that went away with a bundle.
type Report struct {
	Deleted int     `json:"deleted"`
	Covered int     `json:"covered"`
	Bytes   int64   `json:"bytes"`
	Entries []Entry `json:"entries"`
	Skipped int     `json:"skipped"`
}

// Executor removes resources. Deletion is irreversible.
type Executor struct {
	opts Options
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Executor{opts: opts}
}

// Clean removes every path the inventory records for each unused name. A path
// inside an asset bundle removes the nearest enclosing bundle directory; later
// paths inside a bundle removed by this call are counted as covered. Other
// paths that no longer exist are logged and skipped.
func (e *Executor) Clean(unused []string, inv *inventory.Inventory) (*Report, error) {
	if !e.opts.Confirmed {
		return nil, ErrNotConfirmed
	}

	report := &Report{Entries: []Entry{}}
	var removedBundles []string
	var errs []error
	for _, name := range unused {
		paths := inv.Paths(name)
		if len(paths) == 0 {
			slog.Warn("unused resource has no recorded path", "name", name)
			continue
		}
		for _, path := range paths {
			if pathutil.WithinAny(removedBundles, path) {
				slog.Debug("resource removed with its bundle", "name", name, "path", path)
				report.Covered++
				continue
			}
			entry, err := e.remove(name, path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					slog.Info("resource already removed", "name", name, "path", path)
					report.Skipped++
					continue
				}
				slog.Error("failed to remove resource", "name", name, "path", path, "error", err)
				report.Skipped++
				errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
				continue
			}
			if entry.Bundle {
				removedBundles = append(removedBundles, entry.Path)
			}
			report.Deleted++
			report.Bytes += entry.Bytes
			report.Entries = append(report.Entries, entry)
		}
	}

	slog.Info("cleanup completed",
		"deleted", report.Deleted, "covered", report.Covered, "bytes", report.Bytes, "skipped", report.Skipped)
	return report, errors.Join(errs...)
}

func (e *Executor) remove(name, path string) (Entry, error) {
	if bundle, ok := e.bundleDir(path); ok {
		if _, err := os.Stat(bundle); err != nil {
			return Entry{}, err
		}
		size, err := dirSize(bundle)
		if err != nil {
			return Entry{}, fmt.Errorf("size %s: %w", bundle, err)
		}
		e.opts.Logger.Info("deleting resource bundle", "name", name, "path", bundle, "bytes", size)
		if err := os.RemoveAll(bundle); err != nil {
			return Entry{}, err
		}
		return Entry{Name: name, Path: bundle, Bytes: size, Bundle: true}, nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, err
	}
	e.opts.Logger.Info("deleting resource", "name", name, "path", path, "bytes", info.Size())
	if err := os.Remove(path); err != nil {
		return Entry{}, err
	}
	return Entry{Name: name, Path: path, Bytes: info.Size()}, nil
}

// bundleDir returns the asset bundle enclosing path, if any lies below Root.
func (e *Executor) bundleDir(path string) (string, bool) {
	dir, ok := pathutil.BundleDir(path, inventory.BundleSuffix)
	if !ok {
		return "", false
	}
	if e.opts.Root != "" {
		root := filepath.Clean(e.opts.Root)
		if filepath.Clean(dir) == root || !pathutil.IsWithin(root, dir) {
			return "", false
		}
	}
	return dir, true
}

// dirSize sums the sizes of the regular files below dir.
func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
