package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/715d/unusedasset/internal/config"
	"github.com/715d/unusedasset/pkg/cleanup"
	"github.com/715d/unusedasset/pkg/inventory"
	"github.com/715d/unusedasset/pkg/unusedasset"
)

func TestResolveConfig(t *testing.T) {
	savedCfg, savedPath := flagCfg, configPath
	t.Cleanup(func() { flagCfg, configPath = savedCfg, savedPath })

	path := filepath.Join(t.TempDir(), "unusedasset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: ./FromFile\nanalyze_resources: true\nworkers: 3\n"), 0o644))

	flagCfg = config.Default()
	configPath = path
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&flagCfg.InputPath, "input", flagCfg.InputPath, "")
	fs.IntVar(&flagCfg.Workers, "workers", 0, "")
	fs.BoolVar(&flagCfg.ApplyGitignore, "gitignore", true, "")
	require.NoError(t, fs.Parse([]string{"--input", "./FromFlag", "--gitignore=false"}))

	cfg, err := resolveConfig(fs)
	require.NoError(t, err)
	require.Equal(t, "./FromFlag", cfg.InputPath)
	require.True(t, cfg.AnalyzeResources)
	require.Equal(t, 3, cfg.Workers)
	require.False(t, cfg.ApplyGitignore)
}

func TestResolveConfig_MissingFile(t *testing.T) {
	savedPath := configPath
	t.Cleanup(func() { configPath = savedPath })

	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := resolveConfig(pflag.NewFlagSet("test", pflag.ContinueOnError))
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			require.Equal(t, tt.want, confirm(strings.NewReader(tt.input), &out, 3))
			require.Contains(t, out.String(), "Delete 3 unused resources?")
		})
	}
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "0 B", formatBytes(0))
	require.Equal(t, "1023 B", formatBytes(1023))
	require.Equal(t, "1.0 KiB", formatBytes(1024))
	require.Equal(t, "1.5 MiB", formatBytes(1536*1024))
}

func testResult() *unusedasset.Result {
	inv := inventory.New()
	inv.Imagesets["logo"] = "/a/logo.imageset/logo.png"
	inv.Add("png", "banner", "/a/Res/banner.png")
	return &unusedasset.Result{
		Files:     []string{"/a/View.swift"},
		Inventory: inv,
		Partition: &unusedasset.Partition{Used: []string{"logo"}, Unused: []string{"banner"}},
	}
}

func TestFormatTextOutput(t *testing.T) {
	out := formatTextOutput(testResult(), nil, &config.Config{})
	require.Equal(t, "source files: 1\nbanner\nunused resources: 1 of 2\n", out)

	out = formatTextOutput(testResult(), &cleanup.Report{Deleted: 1, Bytes: 2048}, &config.Config{Verbose: true})
	require.Contains(t, out, "  banner\n    /a/Res/banner.png\n")
	require.Contains(t, out, "deleted: 1, reclaimed: 2.0 KiB\n")

	out = formatTextOutput(&unusedasset.Result{Files: []string{"a", "b"}}, nil, &config.Config{})
	require.Equal(t, "source files: 2\n", out)
}

func TestFormatJSONOutput(t *testing.T) {
	data, err := formatJSONOutput(testResult(), nil, time.Second)
	require.NoError(t, err)

	var got struct {
		Unused []jResource `json:"unused_resources"`
		Stats  jStats      `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	require.Equal(t, []jResource{{Name: "banner", Paths: []string{"/a/Res/banner.png"}}}, got.Unused)
	require.Equal(t, 2, got.Stats.Resources)
	require.Equal(t, 1, got.Stats.UnusedResources)
	require.NotContains(t, data, `"cleanup"`)
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, true)
	p.OnProgress(unusedasset.ProgressEvent{Name: "a", Done: 1, Total: 2})
	p.OnProgress(unusedasset.ProgressEvent{Name: "b", Done: 2, Total: 2, Unused: 1})
	require.Contains(t, buf.String(), "[2/2] unused: 1  b\n")

	buf.Reset()
	newProgressPrinter(&buf, false).OnProgress(unusedasset.ProgressEvent{Name: "a", Done: 1, Total: 1})
	require.Empty(t, buf.String())
}

func TestConfigureLogging(t *testing.T) {
	saved := slog.Default()
	t.Cleanup(func() { slog.SetDefault(saved) })

	var buf bytes.Buffer
	configureLogging(&buf, config.Config{})
	slog.Info("hidden")
	slog.Warn("shown", "file", "Bad.swift")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `level=WARN msg=shown file=Bad.swift`)

	buf.Reset()
	configureLogging(&buf, config.Config{Verbose: true, JSON: true})
	slog.Debug("detail")
	require.Contains(t, buf.String(), `"msg":"detail"`)
}

func TestRunCommand_DeleteReportsRemovals(t *testing.T) {
	savedLogger, savedCfg := slog.Default(), runCfg
	t.Cleanup(func() {
		slog.SetDefault(savedLogger)
		runCfg = savedCfg
	})

	root := t.TempDir()
	files := map[string]string{
		"App/View.swift":                         "let image = UIImage(named: \"logo\")\n",
		"App/Bad.swift":                          "\xff\xfe stale",
		"Assets.xcassets/logo.imageset/logo.png": "png",
		"Assets.xcassets/drop.imageset/drop.png": "png",
		"Resources/stale.mp3":                    "mp3",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.Config{
		InputPath:        root,
		OutputPath:       t.TempDir(),
		AnalyzeResources: true,
		AdditionalDirs:   []string{"Resources"},
		Delete:           true,
		AssumeYes:        true,
		Workers:          1,
	}
	require.NoError(t, cfg.Validate())
	runCfg = cfg

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetContext(t.Context())
	configureLogging(&stderr, cfg)

	require.NoError(t, runCommand(cmd, nil))

	bundle := filepath.Join(cfg.InputPath, "Assets.xcassets", "drop.imageset")
	stale := filepath.Join(cfg.InputPath, "Resources", "stale.mp3")
	require.NoDirExists(t, bundle)
	require.NoFileExists(t, stale)

	logs := stderr.String()
	require.Contains(t, logs, `msg="deleting resource bundle" name=drop path=`+bundle)
	require.Contains(t, logs, `msg="deleting resource" name=stale path=`+stale)
	require.Contains(t, logs, "level=WARN")
	require.Contains(t, logs, filepath.Join(cfg.InputPath, "App", "Bad.swift"))
	require.NotContains(t, logs, "starting unused resource analysis")

	require.Contains(t, stdout.String(), "deleted: 2")
}
