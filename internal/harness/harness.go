package harness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/unusedasset/pkg/cleanup"
	"github.com/715d/unusedasset/pkg/unusedasset"
)

// TestHarness manages test execution.
type TestHarness struct {
	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness.
func NewHarness(root string) *TestHarness {
	return &TestHarness{root: root}
}

// Run executes a test case with all its configurations.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.Configurations, "test case has no configurations")

	var results []ConfigurationResult
	var allSuccess = true

	for _, cfg := range tc.Configurations {
		cfgResult := h.runConfiguration(t, tc, cfg)
		results = append(results, *cfgResult)
		if !cfgResult.Success {
			allSuccess = false
		}
	}

	var resultMsg string
	if allSuccess {
		resultMsg = fmt.Sprintf("All %d configurations passed", len(tc.Configurations))
	} else {
		failedCount := 0
		var msgs []string
		for _, cr := range results {
			if !cr.Success {
				failedCount++
				msgs = append(msgs, fmt.Sprintf("[%s] %s:\n  %s",
					cr.Configuration.Name, cr.Message, strings.Join(cr.Details, "\n  ")))
			}
		}
		resultMsg = fmt.Sprintf("%d/%d configurations failed:\n%s",
			failedCount, len(tc.Configurations), strings.Join(msgs, "\n"))
	}

	return &TestResult{
		TestCase:             tc,
		ConfigurationResults: results,
		Success:              allSuccess,
		Message:              resultMsg,
	}
}

// runConfiguration analyzes a fresh copy of the fixture project with one
// set of options.
func (h *TestHarness) runConfiguration(t *testing.T, tc *TestCase, cfg RunConfiguration) *ConfigurationResult {
	t.Helper()
	project := CopyProject(t, filepath.Join(h.root, tc.Dir, projectDir), cfg)

	result, err := unusedasset.NewAnalyzer(unusedasset.AnalyzerOptions{
		Root:             project,
		OutputDir:        t.TempDir(),
		ApplyGitignore:   cfg.Gitignore,
		ExcludeGlobs:     cfg.Exclude,
		AnalyzeResources: true,
		AdditionalDirs:   cfg.AdditionalDirs,
		ExcludeDirs:      cfg.ExcludeDirs,
		Keep:             cfg.Keep,
		Workers:          2,
	}).Analyze(t.Context())
	if err != nil {
		if r := expectedError(cfg, err); r != nil {
			return r
		}
		require.NoError(t, err)
	}

	cfgResult := h.validateConfigurationResults(cfg, result)
	if !cfg.Delete {
		return cfgResult
	}

	report, err := cleanup.NewExecutor(cleanup.Options{Confirmed: true, Root: project}).Clean(result.Partition.Unused, result.Inventory)
	if err != nil {
		if r := expectedError(cfg, err); r != nil {
			return r
		}
		require.NoError(t, err)
	}
	validateCleanup(cfgResult, cfg, project, report)
	return cfgResult
}

func expectedError(cfg RunConfiguration, err error) *ConfigurationResult {
	for _, expectedErr := range cfg.ExpectedErrors {
		if strings.Contains(err.Error(), expectedErr) {
			return &ConfigurationResult{
				Configuration: cfg,
				Success:       true,
				Message:       fmt.Sprintf("Got expected error: %v", err),
			}
		}
	}
	return nil
}

// validateConfigurationResults compares actual results with expected for a specific configuration
func (h *TestHarness) validateConfigurationResults(cfg RunConfiguration, result *unusedasset.Result) *ConfigurationResult {
	cfgResult := ConfigurationResult{
		Configuration: cfg,
		Result:        result,
	}

	if err := validateExpectedResources(cfg.ExpectedUnused); err != nil {
		cfgResult.Success = false
		cfgResult.Message = fmt.Sprintf("Invalid expected.yaml: %v", err)
		cfgResult.Details = []string{err.Error()}
		return &cfgResult
	}

	unused := make([]UnusedResource, 0, len(result.Partition.Unused))
	for _, name := range result.Partition.Unused {
		unused = append(unused, UnusedResource{
			Name:  name,
			Paths: result.Inventory.Paths(name),
		})
	}

	validateResults(&cfgResult, cfg.ExpectedUnused, unused)
	return &cfgResult
}

// ConfigurationResult represents the result of running a single configuration.
type ConfigurationResult struct {
	// Configuration is the configuration that was run.
	Configuration RunConfiguration

	// Result is the raw result from the analyzer.
	Result *unusedasset.Result

	// Success indicates if this configuration passed.
	Success bool

	// Message provides a summary of the result for this configuration.
	Message string

	// Details provides detailed information about failures for this configuration.
	Details []string
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// ConfigurationResults contains results for each configuration.
	ConfigurationResults []ConfigurationResult

	// Success indicates if the test passed (all configurations passed)
	Success bool

	// Message provides a summary of the result.
	Message string
}

// UnusedResource represents an unused resource found by analysis.
type UnusedResource struct {
	Name  string
	Paths []string
}

// validateExpectedResources validates that expected resources have required fields
func validateExpectedResources(expected []ExpectedResource) error {
	for i, exp := range expected {
		if strings.TrimSpace(exp.Name) == "" {
			return fmt.Errorf("expected resource at index %d has empty or missing 'name' field", i)
		}
	}
	return nil
}

func validateResults(cfgResult *ConfigurationResult, expected []ExpectedResource, actual []UnusedResource) {
	expectedMap := make(map[string]ExpectedResource)
	for _, e := range expected {
		expectedMap[e.Name] = e
	}

	actualMap := make(map[string]UnusedResource)
	for _, a := range actual {
		actualMap[a.Name] = a
	}

	var details []string
	success := true

	var missing []string
	for key, exp := range expectedMap {
		if _, found := actualMap[key]; !found {
			missing = append(missing, fmt.Sprintf("%s (%s)", exp.Name, exp.Reason))
			success = false
		}
	}

	var unexpected []string
	for key, act := range actualMap {
		if _, found := expectedMap[key]; !found {
			unexpected = append(unexpected, act.Name)
			success = false
		}
	}

	// Sort for consistent output.
	sort.Strings(missing)
	sort.Strings(unexpected)

	for _, m := range missing {
		details = append(details, "Should have been marked unused: "+m)
	}
	for _, u := range unexpected {
		details = append(details, "Should have been marked used: "+u)
	}

	for key, exp := range expectedMap {
		act, found := actualMap[key]
		if !found || exp.Path == "" {
			continue
		}
		if !hasPathSuffix(act.Paths, exp.Path) {
			details = append(details, fmt.Sprintf(
				"Path mismatch for %s: expected a path ending with %q, got %q",
				exp.Name, exp.Path, act.Paths))
			success = false
		}
	}

	var message string
	if success {
		message = fmt.Sprintf("All %d expected unused resources found", len(expected))
	} else {
		message = fmt.Sprintf("Test failed: %d missing, %d unexpected", len(missing), len(unexpected))
	}

	cfgResult.Success = success
	cfgResult.Message = message
	cfgResult.Details = details
}

func validateCleanup(cfgResult *ConfigurationResult, cfg RunConfiguration, project string, report *cleanup.Report) {
	var details []string
	if report.Deleted != cfg.ExpectedDeleted {
		details = append(details, fmt.Sprintf("Deleted %d paths, expected %d", report.Deleted, cfg.ExpectedDeleted))
	}
	for _, rel := range cfg.ExpectedRemoved {
		_, err := os.Lstat(filepath.Join(project, filepath.FromSlash(rel)))
		if !errors.Is(err, fs.ErrNotExist) {
			details = append(details, "Should have been removed: "+rel)
		}
	}
	if len(details) > 0 {
		cfgResult.Success = false
		cfgResult.Message = "Cleanup mismatch"
		cfgResult.Details = append(cfgResult.Details, details...)
	}
}

func hasPathSuffix(paths []string, suffix string) bool {
	suffix = filepath.FromSlash(suffix)
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}
