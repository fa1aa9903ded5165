package unusedasset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/715d/unusedasset/internal/pathutil"
)

// DefaultSourceExtensions are the development files searched for references.
var DefaultSourceExtensions = []string{".h", ".m", ".swift", ".xib", ".nib", ".storyboard"}

// LoaderOptions configures how the source corpus is collected.
type LoaderOptions struct {
	// Root is the project directory to walk.
	Root string

	// ApplyGitignore drops paths matched by Root/.gitignore when that file exists.
	ApplyGitignore bool

	// ExcludeGlobs are doublestar patterns matched against root-relative,
	// slash-separated paths.
	ExcludeGlobs []string

	// Extensions restricts the corpus to these file extensions.
	// If empty, DefaultSourceExtensions is used.
	Extensions []string
}

// LoadSources walks opts.Root and returns the filtered source files in
// lexical order.
func LoadSources(ctx context.Context, opts LoaderOptions) ([]string, error) {
	if err := pathutil.CheckDir(opts.Root); err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}
	for _, pattern := range opts.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	all, err := walkRegularFiles(ctx, opts.Root)
	if err != nil {
		return nil, err
	}
	slog.Info("enumerated project files", "root", opts.Root, "num", len(all))

	files := all
	if opts.ApplyGitignore {
		files, err = filterGitignore(opts.Root, files)
		if err != nil {
			return nil, err
		}
		slog.Info("applied gitignore rules", "num", len(files))
	}

	files = filterGlobs(opts.Root, files, opts.ExcludeGlobs)

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultSourceExtensions
	}
	files = filterExtensions(files, exts)
	slog.Info("filtered source files", "extensions", exts, "num", len(files))
	return files, nil
}

func walkRegularFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
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
		if d.IsDir() {
			return ctx.Err()
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// filterGitignore drops files matched by root/.gitignore.
func filterGitignore(root string, files []string) ([]string, error) {
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no .gitignore found", "root", root)
		return files, nil
	} else if err != nil {
		return nil, fmt.Errorf("checking .gitignore: %w", err)
	}

	ignored, err := ignore.CompileIgnoreFile(gitignorePath)
	if err != nil {
		return nil, fmt.Errorf("reading .gitignore: %w", err)
	}

	return slices.DeleteFunc(slices.Clone(files), func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		if ignored.MatchesPath(filepath.ToSlash(rel)) {
			slog.Debug("ignored by .gitignore", "file", rel)
			return true
		}
		return false
	}), nil
}

// filterGlobs drops files whose root-relative path matches any pattern.
func filterGlobs(root string, files []string, patterns []string) []string {
	if len(patterns) == 0 {
		return files
	}
	return slices.DeleteFunc(slices.Clone(files), func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				slog.Debug("excluded by pattern", "file", rel, "pattern", pattern)
				return true
			}
		}
		return false
	})
}

func filterExtensions(files []string, exts []string) []string {
	return slices.DeleteFunc(slices.Clone(files), func(path string) bool {
		return !slices.ContainsFunc(exts, func(ext string) bool {
			return strings.HasSuffix(path, ext)
		})
	})
}
