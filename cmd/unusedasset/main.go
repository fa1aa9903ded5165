// Package main implements the CLI driver for the unusedasset analyzer.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/715d/unusedasset/internal/config"
	"github.com/715d/unusedasset/pkg/cleanup"
	"github.com/715d/unusedasset/pkg/unusedasset"
)

const (
	exitUnusedFound = 1
	exitError       = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var (
	flagCfg    = config.Default()
	configPath string
	profile    bool
)

// overrides copies a flag's value from the flag-bound config into the
// effective one, keyed by flag name.
var overrides = map[string]func(dst, src *config.Config){
	"input":                func(d, s *config.Config) { d.InputPath = s.InputPath },
	"output":               func(d, s *config.Config) { d.OutputPath = s.OutputPath },
	"gitignore":            func(d, s *config.Config) { d.ApplyGitignore = s.ApplyGitignore },
	"exclude":              func(d, s *config.Config) { d.ExcludeGlobs = s.ExcludeGlobs },
	"analyze-resources":    func(d, s *config.Config) { d.AnalyzeResources = s.AnalyzeResources },
	"arp":                  func(d, s *config.Config) { d.AdditionalDirs = s.AdditionalDirs },
	"erp":                  func(d, s *config.Config) { d.ExcludeDirs = s.ExcludeDirs },
	"keep":                 func(d, s *config.Config) { d.Keep = s.Keep },
	"use-cached-files":     func(d, s *config.Config) { d.UseCachedFiles = s.UseCachedFiles },
	"use-cached-resources": func(d, s *config.Config) { d.UseCachedResources = s.UseCachedResources },
	"use-cached-unused":    func(d, s *config.Config) { d.UseCachedUnused = s.UseCachedUnused },
	"delete":               func(d, s *config.Config) { d.Delete = s.Delete },
	"yes":                  func(d, s *config.Config) { d.AssumeYes = s.AssumeYes },
	"workers":              func(d, s *config.Config) { d.Workers = s.Workers },
	"verbose":              func(d, s *config.Config) { d.Verbose = s.Verbose },
	"json":                 func(d, s *config.Config) { d.JSON = s.JSON },
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "unusedasset",
		Short: "Find unused resources in iOS projects",
		Long: `unusedasset inventories the resources of an iOS project and reports the ones
no source file references.

It:
- collects source files (.h .m .swift .xib .nib .storyboard), honoring .gitignore
- extracts declared Objective-C and Swift types
- inventories *.imageset bundles and any additional resource folders
- reports resources whose name appears nowhere in the sources
- with --delete: removes them after confirmation`,
		Example: `  unusedasset -p ./MyApp -o ./out -r              # Report unused resources
  unusedasset -p . -r --arp Resources --erp Vendor  # Include and exclude folders
  unusedasset -p . -r -t --use-cached-resources    # Reuse previous snapshots
  unusedasset -p . -r --delete                     # Delete after confirmation
  unusedasset -c unusedasset.yaml                  # Read options from a file`,
		Args:               cobra.NoArgs,
		RunE:               runCommand,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Version:            version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("unusedasset version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "YAML file with default options; flags take precedence")
	f.StringVarP(&flagCfg.InputPath, "input", "p", flagCfg.InputPath, "Project root to analyze")
	f.StringVarP(&flagCfg.OutputPath, "output", "o", flagCfg.OutputPath, "Directory for the JSON artifacts")
	f.BoolVar(&flagCfg.ApplyGitignore, "gitignore", flagCfg.ApplyGitignore, "Filter source files with the project's .gitignore")
	f.StringSliceVar(&flagCfg.ExcludeGlobs, "exclude", nil, "Glob patterns (relative to the input path) removed from the sources")
	f.BoolVarP(&flagCfg.AnalyzeResources, "analyze-resources", "r", false, "Inventory resources and report the unused ones")
	f.StringSliceVar(&flagCfg.AdditionalDirs, "arp", nil, "Additional resource folders (paths or folder names)")
	f.StringSliceVar(&flagCfg.ExcludeDirs, "erp", nil, "Resource folders to exclude (paths or folder names)")
	f.StringSliceVar(&flagCfg.Keep, "keep", nil, "Resource name patterns never reported unused (e.g. AppIcon*)")
	f.BoolVarP(&flagCfg.UseCachedFiles, "use-cached-files", "t", false, "Use filtered_files.json instead of walking the project")
	f.BoolVar(&flagCfg.UseCachedResources, "use-cached-resources", false, "Use filtered_resources.json instead of rebuilding the inventory")
	f.BoolVar(&flagCfg.UseCachedUnused, "use-cached-unused", false, "Use unused_assets.json instead of matching again")
	f.BoolVar(&flagCfg.Delete, "delete", false, "Delete unused resources (asks for confirmation)")
	f.BoolVarP(&flagCfg.AssumeYes, "yes", "y", false, "Do not ask before deleting")
	f.IntVar(&flagCfg.Workers, "workers", 0, "Concurrent usage checks (0 = one per CPU)")
	f.BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "Enable verbose output")
	f.BoolVar(&flagCfg.JSON, "json", false, "Output in JSON format")
	f.BoolVar(&profile, "profile", false, "Enable CPU and memory profiling (writes cpu.prof and mem.prof to current directory)")

	if err := rootCmd.Execute(); err != nil {
		_ = teardown(nil, nil)
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

// resolveConfig layers the flags that were set over the YAML file, if any,
// over the defaults.
func resolveConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return cfg, err
		}
	}
	flags.Visit(func(fl *pflag.Flag) {
		if apply, ok := overrides[fl.Name]; ok {
			apply(&cfg, &flagCfg)
		}
	})
	return cfg, nil
}

var runCfg config.Config

func runCommand(cmd *cobra.Command, _ []string) error {
	cfg := runCfg
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	slog.Info("starting unused resource analysis", "input", cfg.InputPath, "output", cfg.OutputPath)

	start := time.Now()
	analyzer := unusedasset.NewAnalyzer(unusedasset.AnalyzerOptions{
		Root:               cfg.InputPath,
		OutputDir:          cfg.OutputPath,
		ApplyGitignore:     cfg.ApplyGitignore,
		ExcludeGlobs:       cfg.ExcludeGlobs,
		AnalyzeResources:   cfg.AnalyzeResources,
		AdditionalDirs:     cfg.AdditionalDirs,
		ExcludeDirs:        cfg.ExcludeDirs,
		Keep:               cfg.Keep,
		UseCachedFiles:     cfg.UseCachedFiles,
		UseCachedResources: cfg.UseCachedResources,
		UseCachedUnused:    cfg.UseCachedUnused,
		Workers:            cfg.Workers,
		Observer:           newProgressPrinter(stderr, !cfg.JSON),
	})
	result, err := analyzer.Analyze(cmd.Context())
	if err != nil {
		return errWithCode(fmt.Errorf("analyze: %w", err), exitError)
	}
	duration := time.Since(start)
	slog.Info("analysis completed", "dur", duration)

	var report *cleanup.Report
	if cfg.Delete && result.Partition != nil && len(result.Partition.Unused) > 0 {
		confirmed := cfg.AssumeYes || confirm(cmd.InOrStdin(), stderr, len(result.Partition.Unused))
		if confirmed {
			// Removals are always reported, verbose or not.
			logger := slog.Default()
			if !cfg.Verbose {
				logger = newLogger(stderr, cfg.JSON, slog.LevelInfo)
			}
			report, err = cleanup.NewExecutor(cleanup.Options{
				Confirmed: true,
				Root:      cfg.InputPath,
				Logger:    logger,
			}).Clean(result.Partition.Unused, result.Inventory)
			if err != nil {
				_ = printSummary(stdout, result, report, duration, &cfg)
				return errWithCode(fmt.Errorf("cleanup: %w", err), exitError)
			}
		} else {
			slog.Info("deletion declined")
		}
	}

	if err := printSummary(stdout, result, report, duration, &cfg); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}

	if result.Partition != nil && len(result.Partition.Unused) > 0 && report == nil {
		return errWithCode(nil, exitUnusedFound)
	}
	return nil
}

// confirm asks on out and reads a single answer from in.
func confirm(in io.Reader, out io.Writer, n int) bool {
	fmt.Fprintf(out, "Delete %d unused resources? This cannot be undone. [y/N] ", n)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// progressPrinter renders progress events as a single rewritten line.
type progressPrinter struct {
	w       io.Writer
	enabled bool
}

func newProgressPrinter(w io.Writer, enabled bool) *progressPrinter {
	return &progressPrinter{w: w, enabled: enabled}
}

func (p *progressPrinter) OnProgress(ev unusedasset.ProgressEvent) {
	slog.Debug("checked resource", "name", ev.Name, "used", ev.Used, "done", ev.Done, "total", ev.Total)
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K[%d/%d] unused: %d  %s", ev.Done, ev.Total, ev.Unused, ev.Name)
	if ev.Done == ev.Total {
		fmt.Fprintln(p.w)
	}
}

func printSummary(w io.Writer, result *unusedasset.Result, report *cleanup.Report, dur time.Duration, cfg *config.Config) error {
	if cfg.JSON {
		out, err := formatJSONOutput(result, report, dur)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	}
	_, err := io.WriteString(w, formatTextOutput(result, report, cfg))
	return err
}

func formatTextOutput(result *unusedasset.Result, report *cleanup.Report, cfg *config.Config) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("source files: %d\n", len(result.Files)))
	if result.Partition == nil {
		return output.String()
	}

	if cfg.Verbose {
		for _, name := range result.Partition.Unused {
			output.WriteString(fmt.Sprintf("  %s\n", name))
			for _, p := range result.Inventory.Paths(name) {
				output.WriteString(fmt.Sprintf("    %s\n", p))
			}
		}
	} else {
		for _, name := range result.Partition.Unused {
			output.WriteString(name + "\n")
		}
	}
	output.WriteString(fmt.Sprintf("unused resources: %d of %d\n",
		len(result.Partition.Unused), len(result.Partition.Used)+len(result.Partition.Unused)))

	if report != nil {
		output.WriteString(fmt.Sprintf("deleted: %d, reclaimed: %s\n", report.Deleted, formatBytes(report.Bytes)))
	}
	return output.String()
}

func formatJSONOutput(result *unusedasset.Result, report *cleanup.Report, dur time.Duration) (string, error) {
	out := jOutput{
		Stats: jStats{
			SourceFiles:      len(result.Files),
			AnalysisDuration: dur,
		},
		Cleanup:   report,
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	out.Unused = []jResource{}
	if result.Partition != nil {
		out.Stats.Resources = len(result.Partition.Used) + len(result.Partition.Unused)
		out.Stats.UnusedResources = len(result.Partition.Unused)
		for _, name := range result.Partition.Unused {
			out.Unused = append(out.Unused, jResource{Name: name, Paths: result.Inventory.Paths(name)})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling json output: %w", err)
	}
	return string(data), nil
}

type jOutput struct {
	Unused    []jResource     `json:"unused_resources"`
	Stats     jStats          `json:"stats"`
	Cleanup   *cleanup.Report `json:"cleanup,omitempty"`
	Version   string          `json:"version"`
	Timestamp string          `json:"timestamp"`
}

type jStats struct {
	SourceFiles      int           `json:"source_files"`
	Resources        int           `json:"resources"`
	UnusedResources  int           `json:"unused_resources"`
	AnalysisDuration time.Duration `json:"analysis_duration"`
}

type jResource struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

var cpuProfile *os.File

// configureLogging installs the default logger on w. Only warnings and errors
// are shown unless verbose output is requested.
func configureLogging(w io.Writer, cfg config.Config) {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(w, cfg.JSON, level))
}

func newLogger(w io.Writer, asJSON bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return errWithCode(err, exitError)
	}

	configureLogging(cmd.ErrOrStderr(), cfg)

	if err := cfg.Validate(); err != nil {
		return errWithCode(err, exitError)
	}
	runCfg = cfg

	if !profile {
		return nil
	}

	// Start CPU profiling.
	cpuProfile, err = os.Create("cpu.prof")
	if err != nil {
		return fmt.Errorf("creating cpu.prof: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		_ = cpuProfile.Close()
		cpuProfile = nil
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	slog.Info("cpu profiling started", "file", "cpu.prof")
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if !profile || cpuProfile == nil {
		return nil
	}

	// Stop CPU profiling and close file.
	pprof.StopCPUProfile()
	defer func() {
		_ = cpuProfile.Close()
		cpuProfile = nil
	}()
	slog.Info("cpu profiling stopped", "file", "cpu.prof")

	// Write memory profile.
	memFile, err := os.Create("mem.prof")
	if err != nil {
		return fmt.Errorf("creating mem.prof: %w", err)
	}
	defer memFile.Close()
	runtime.GC() // Get up-to-date statistics
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	slog.Info("memory profiling completed", "file", "mem.prof")
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error {
	return e.err
}
