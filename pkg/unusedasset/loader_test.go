package unusedasset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates every file in files (slash paths relative to root).
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestLoadSources(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":                 "Pods\n*.generated.swift\n",
		"App/AppDelegate.swift":      "",
		"App/Model.generated.swift":  "",
		"App/Legacy/Old.m":           "",
		"App/Legacy/Old.h":           "",
		"App/Main.storyboard":        "",
		"App/Cell.xib":               "",
		"App/Assets.xcassets/a.json": "",
		"App/README.md":              "",
		"Pods/Lib/Lib.swift":         "",
		"Tests/AppTests.swift":       "",
	})

	tests := []struct {
		name string
		opts LoaderOptions
		want []string
	}{
		{
			name: "gitignore_applied",
			opts: LoaderOptions{Root: root, ApplyGitignore: true},
			want: []string{
				"App/AppDelegate.swift",
				"App/Cell.xib",
				"App/Legacy/Old.h",
				"App/Legacy/Old.m",
				"App/Main.storyboard",
				"Tests/AppTests.swift",
			},
		},
		{
			name: "gitignore_disabled",
			opts: LoaderOptions{Root: root},
			want: []string{
				"App/AppDelegate.swift",
				"App/Cell.xib",
				"App/Legacy/Old.h",
				"App/Legacy/Old.m",
				"App/Main.storyboard",
				"App/Model.generated.swift",
				"Pods/Lib/Lib.swift",
				"Tests/AppTests.swift",
			},
		},
		{
			name: "exclude_globs",
			opts: LoaderOptions{
				Root:           root,
				ApplyGitignore: true,
				ExcludeGlobs:   []string{"App/Legacy/**", "Tests/**"},
			},
			want: []string{
				"App/AppDelegate.swift",
				"App/Cell.xib",
				"App/Main.storyboard",
			},
		},
		{
			name: "custom_extensions",
			opts: LoaderOptions{Root: root, ApplyGitignore: true, Extensions: []string{".md"}},
			want: []string{"App/README.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := LoadSources(t.Context(), tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.want, rels(t, root, files))
		})
	}
}

func TestLoadSources_NoGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"A.swift": ""})

	files, err := LoadSources(t.Context(), LoaderOptions{Root: root, ApplyGitignore: true})
	require.NoError(t, err)
	require.Equal(t, []string{"A.swift"}, rels(t, root, files))
}

func TestLoadSources_Errors(t *testing.T) {
	_, err := LoadSources(t.Context(), LoaderOptions{Root: filepath.Join(t.TempDir(), "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadSources(t.Context(), LoaderOptions{Root: t.TempDir(), ExcludeGlobs: []string{"[unclosed"}})
	require.ErrorContains(t, err, "invalid exclude pattern")
}
