package unusedasset

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/715d/unusedasset/pkg/classes"
	"github.com/715d/unusedasset/pkg/inventory"
	"github.com/715d/unusedasset/pkg/snapshot"
	"github.com/715d/unusedasset/pkg/suppress"
)

// AnalyzerOptions holds configuration options for the analyzer.
type AnalyzerOptions struct {
	Root      string // project directory
	OutputDir string // artifact directory

	ApplyGitignore bool     // filter sources with Root/.gitignore
	ExcludeGlobs   []string // doublestar patterns removed from the sources

	AnalyzeResources bool     // build the inventory and reconcile it
	AdditionalDirs   []string // resource directories collected into Others
	ExcludeDirs      []string // resource directories never collected

	UseCachedFiles     bool // load filtered_files.json instead of walking Root
	UseCachedResources bool // load filtered_resources.json instead of building
	UseCachedUnused    bool // load unused_assets.json instead of matching

	Keep []string // doublestar patterns of names never reported unused

	Workers  int      // concurrent checks; zero means runtime.NumCPU()
	Observer Observer // progress sink, may be nil
}

// Result is the outcome of one analysis run. Inventory and Partition are nil
// unless resources were analyzed.
type Result struct {
	Files     []string
	Objects   *classes.Objects
	Inventory *inventory.Inventory
	Partition *Partition
}

// Analyzer runs the pipeline: sources, classes, inventory, reconciliation.
type Analyzer struct {
	store *snapshot.Store
	opts  AnalyzerOptions
}

// NewAnalyzer creates a new analyzer with the given options.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	return &Analyzer{
		store: snapshot.NewStore(opts.OutputDir),
		opts:  opts,
	}
}

// Store returns the snapshot store the analyzer writes to.
func (a *Analyzer) Store() *snapshot.Store {
	return a.store
}

// Analyze performs every stage enabled by the options, persisting each
// artifact as soon as it is complete.
func (a *Analyzer) Analyze(ctx context.Context) (*Result, error) {
	var res Result

	// Step 1: Collect the filtered source files and their declared types.
	files, err := a.sources(ctx, &res)
	if err != nil {
		return nil, err
	}
	res.Files = files

	if !a.opts.AnalyzeResources {
		return &res, nil
	}

	// Step 2: Build or load the resource inventory.
	inv, err := a.inventory()
	if err != nil {
		return nil, err
	}
	res.Inventory = inv

	// Step 3: Reconcile names against the corpus, or load the last verdicts.
	keep, err := suppress.NewChecker(a.opts.Keep)
	if err != nil {
		return nil, err
	}
	p, err := a.partition(ctx, inv, files, keep)
	if err != nil {
		return nil, err
	}
	res.Partition = p
	return &res, nil
}

func (a *Analyzer) sources(ctx context.Context, res *Result) ([]string, error) {
	if a.opts.UseCachedFiles {
		files, err := a.store.ReadFiles()
		if err != nil {
			return nil, fmt.Errorf("load cached files: %w", err)
		}
		slog.Info("loaded cached source files", "num", len(files))
		return files, nil
	}

	files, err := LoadSources(ctx, LoaderOptions{
		Root:           a.opts.Root,
		ApplyGitignore: a.opts.ApplyGitignore,
		ExcludeGlobs:   a.opts.ExcludeGlobs,
	})
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	if err := a.store.WriteFiles(files); err != nil {
		return nil, err
	}
	slog.Info("saved filtered files", "path", a.store.Path(snapshot.FilesFile))

	objs := classes.Extract(files)
	if err := a.store.WriteObjects(objs); err != nil {
		return nil, err
	}
	res.Objects = objs
	slog.Info("saved extracted objects",
		"path", a.store.Path(snapshot.ObjectsFile),
		"objc", len(objs.ObjectiveC),
		"swift_classes", len(objs.Swift.Classes),
		"swift_structs", len(objs.Swift.Structs))
	return files, nil
}

func (a *Analyzer) inventory() (*inventory.Inventory, error) {
	if a.opts.UseCachedResources {
		inv, err := a.store.ReadInventory()
		if err != nil {
			return nil, fmt.Errorf("load cached resources: %w", err)
		}
		slog.Info("loaded cached resource inventory", "names", len(inv.Names()))
		return inv, nil
	}

	inv, err := inventory.Build(a.opts.Root, inventory.Options{
		AdditionalDirs: a.opts.AdditionalDirs,
		ExcludeDirs:    a.opts.ExcludeDirs,
	})
	if err != nil {
		return nil, fmt.Errorf("build inventory: %w", err)
	}
	if err := a.store.WriteInventory(inv); err != nil {
		return nil, err
	}
	slog.Info("saved resource inventory", "path", a.store.Path(snapshot.ResourcesFile))
	return inv, nil
}

func (a *Analyzer) partition(ctx context.Context, inv *inventory.Inventory, files []string, keep *suppress.Checker) (*Partition, error) {
	if a.opts.UseCachedUnused {
		unused, err := a.store.ReadUnused()
		if err != nil {
			return nil, fmt.Errorf("load cached unused: %w", err)
		}
		return applyKeep(partitionFromUnused(inv.Names(), unused), keep), nil
	}

	r := NewReconciler(ReconcilerOptions{
		Workers:  a.opts.Workers,
		Observer: a.opts.Observer,
	})
	p, err := r.Reconcile(ctx, inv, NewFileCorpus(files))
	if err != nil {
		return nil, err
	}
	if n := r.Unreadable(); n > 0 {
		slog.Warn("some source files could not be read", "num", n)
	}
	p = applyKeep(p, keep)
	if err := a.store.WriteUnused(p.Unused); err != nil {
		return nil, err
	}
	slog.Info("saved unused resources", "path", a.store.Path(snapshot.UnusedFile), "num", len(p.Unused))
	return p, nil
}

// partitionFromUnused rebuilds a partition from persisted unused names.
// Names no longer in the inventory are dropped.
func partitionFromUnused(names, unused []string) *Partition {
	unusedSet := make(map[string]struct{}, len(unused))
	for _, n := range unused {
		unusedSet[n] = struct{}{}
	}

	p := &Partition{Used: []string{}, Unused: []string{}}
	for _, n := range names {
		if _, ok := unusedSet[n]; ok {
			p.Unused = append(p.Unused, n)
			delete(unusedSet, n)
		} else {
			p.Used = append(p.Used, n)
		}
	}
	if len(unusedSet) > 0 {
		stale := make([]string, 0, len(unusedSet))
		for n := range unusedSet {
			stale = append(stale, n)
		}
		slices.Sort(stale)
		slog.Warn("cached unused names not in inventory", "names", stale)
	}
	return p
}

// applyKeep moves unused names matching a keep pattern to the used side.
func applyKeep(p *Partition, keep *suppress.Checker) *Partition {
	kept, rest := keep.Split(p.Unused)
	if len(kept) == 0 {
		return p
	}
	for _, n := range kept {
		_, pattern := keep.IsSuppressed(n)
		slog.Debug("keeping resource", "name", n, "pattern", pattern)
	}
	used := append(slices.Clone(p.Used), kept...)
	slices.Sort(used)
	return &Partition{Used: used, Unused: rest}
}
