package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"
)

// projectDir is the fixture subdirectory holding the iOS project tree.
const projectDir = "project"

// LoadTestCase loads a test case from a directory with a specified testdata root.
func LoadTestCase(t *testing.T, dir, root string) *TestCase {
	t.Helper()
	yamlPath := filepath.Join(dir, "expected.yaml")

	tc := &TestCase{}
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	err = yaml.Unmarshal(data, tc)
	require.NoError(t, err)

	// Use relative path from testdata root if provided.
	if root != "" {
		relPath, err := filepath.Rel(root, dir)
		if err != nil {
			tc.Dir = filepath.Base(dir)
		} else {
			tc.Dir = relPath
		}
		return tc
	}

	tc.Dir = filepath.Base(dir)
	return tc
}

// CopyProject copies the fixture project into a fresh temporary directory,
// so configurations that delete files leave testdata untouched.
func CopyProject(t *testing.T, src string, cfg RunConfiguration) string {
	t.Helper()

	dst := filepath.Join(t.TempDir(), projectDir)
	require.NoError(t, os.CopyFS(dst, os.DirFS(src)))

	if len(cfg.GitignoreRules) > 0 {
		rules := strings.Join(cfg.GitignoreRules, "\n") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dst, ".gitignore"), []byte(rules), 0o644))
	}
	return dst
}
