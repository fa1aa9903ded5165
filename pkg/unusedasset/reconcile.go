package unusedasset

import (
	"context"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"

	"github.com/715d/unusedasset/internal/analysis"
	"github.com/715d/unusedasset/pkg/inventory"
)

// ReconcilerOptions configures a Reconciler.
type ReconcilerOptions struct {
	// Workers bounds concurrent checks. If zero, runtime.NumCPU() is used.
	Workers int

	// Observer receives one event per resource name. May be nil.
	Observer Observer
}

// Reconciler checks every inventoried resource name against a corpus.
type Reconciler struct {
	matcher *analysis.Matcher
	opts    ReconcilerOptions

	// unreadable records files already reported as unreadable.
	unreadable *xsync.Map[string, struct{}]

	mu     sync.Mutex
	done   int
	unused int
}

// NewReconciler creates a reconciler with the given options.
func NewReconciler(opts ReconcilerOptions) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = goruntime.NumCPU()
	}
	return &Reconciler{
		matcher:    analysis.NewMatcher(),
		opts:       opts,
		unreadable: xsync.NewMap[string, struct{}](),
	}
}

// verdict is the result of checking one name.
type verdict struct {
	name string
	used bool
}

// Reconcile partitions the distinct names of inv into used and unused.
// The partition is only returned once every check has finished.
func (r *Reconciler) Reconcile(ctx context.Context, inv *inventory.Inventory, corpus Corpus) (*Partition, error) {
	names := inv.Names()
	files := corpus.Files()

	r.mu.Lock()
	r.done, r.unused = 0, 0
	r.mu.Unlock()

	// Each goroutine writes only its own index; results are read after Wait.
	results := make([]verdict, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for idx, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			used := r.check(gctx, name, files, corpus)
			if err := gctx.Err(); err != nil {
				return err
			}
			results[idx] = verdict{name: name, used: used}
			r.report(name, used, len(names))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	p := &Partition{Used: []string{}, Unused: []string{}}
	for _, v := range results {
		if v.used {
			p.Used = append(p.Used, v.name)
		} else {
			p.Unused = append(p.Unused, v.name)
		}
	}
	slog.Info("reconciliation completed", "names", len(names), "used", len(p.Used), "unused", len(p.Unused))
	return p, nil
}

// check scans files in order until one references name.
func (r *Reconciler) check(ctx context.Context, name string, files []string, corpus Corpus) bool {
	for _, file := range files {
		if ctx.Err() != nil {
			return false
		}
		content, err := corpus.ReadFile(file)
		if err != nil {
			if _, loaded := r.unreadable.LoadOrStore(file, struct{}{}); !loaded {
				slog.Warn("treating unreadable source as no match", "file", file, "error", err)
			}
			continue
		}
		if r.matcher.IsUsed(name, content) {
			return true
		}
	}
	return false
}

func (r *Reconciler) report(name string, used bool, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	if !used {
		r.unused++
		slog.Info("found unused resource", "name", name)
	}
	if r.opts.Observer != nil {
		r.opts.Observer.OnProgress(ProgressEvent{
			Name:   name,
			Used:   used,
			Done:   r.done,
			Total:  total,
			Unused: r.unused,
		})
	}
}

// Unreadable returns the number of distinct files that could not be read.
func (r *Reconciler) Unreadable() int {
	return r.unreadable.Size()
}
