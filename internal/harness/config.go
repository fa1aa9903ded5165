// Package harness provides test harness infrastructure for validating the analyzer against fixture projects.
package harness

// RunConfiguration represents a single set of analyzer options to test.
type RunConfiguration struct {
	// Name is a descriptive name for this configuration.
	Name string `yaml:"name"`

	// Gitignore enables filtering of the sources with the project's .gitignore.
	Gitignore bool `yaml:"gitignore"`

	// GitignoreRules, if set, are written to the copied project's .gitignore
	// before the run.
	GitignoreRules []string `yaml:"gitignore_rules,omitempty"`

	// Exclude lists doublestar patterns removed from the sources.
	Exclude []string `yaml:"exclude,omitempty"`

	// AdditionalDirs and ExcludeDirs are the resource folder options.
	AdditionalDirs []string `yaml:"additional_dirs,omitempty"`
	ExcludeDirs    []string `yaml:"exclude_dirs,omitempty"`

	// Keep lists resource name patterns never reported unused.
	Keep []string `yaml:"keep,omitempty"`

	// Delete runs cleanup on the unused resources after the analysis.
	Delete bool `yaml:"delete,omitempty"`

	// ExpectedUnused lists the resources expected to be reported as unused.
	ExpectedUnused []ExpectedResource `yaml:"expected_unused"`

	// ExpectedDeleted is the number of removals when Delete is set. A bundle
	// counts once.
	ExpectedDeleted int `yaml:"expected_deleted,omitempty"`

	// ExpectedRemoved lists project-relative paths that must be gone after cleanup.
	ExpectedRemoved []string `yaml:"expected_removed,omitempty"`

	// ExpectedErrors lists any expected error messages for this configuration.
	ExpectedErrors []string `yaml:"expected_errors,omitempty"`
}

// TestCase represents a single fixture scenario.
type TestCase struct {
	// Dir is the fixture directory relative to the testdata root.
	Dir string `yaml:"-"`

	// Description says what the fixture exercises.
	Description string `yaml:"description"`

	// Configurations defines the option sets to run against the fixture.
	Configurations []RunConfiguration `yaml:"configurations"`
}

// ExpectedResource represents a resource expected to be reported as unused.
type ExpectedResource struct {
	// Name is the resource name.
	Name string `yaml:"name"`

	// Reason describes why the resource is unused.
	Reason string `yaml:"reason"`

	// Path is an optional suffix that one of the resource's paths must end with.
	Path string `yaml:"path,omitempty"`
}
