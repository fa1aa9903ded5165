// Package unusedasset finds resource assets that no filtered source file
// references.
package unusedasset

// Partition splits every inventoried resource name into used and unused.
// Both slices are sorted and together hold each name exactly once.
type Partition struct {
	Used   []string `json:"used"`
	Unused []string `json:"unused"`
}

// ProgressEvent is emitted once per resource name as its verdict is reached.
type ProgressEvent struct {
	Name   string // resource name just checked
	Used   bool   // verdict for Name
	Done   int    // names checked so far
	Total  int    // names to check
	Unused int    // unused names confirmed so far
}

// Observer receives progress events. Calls are serialized.
type Observer interface {
	OnProgress(ProgressEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ProgressEvent)

// OnProgress calls f(ev).
func (f ObserverFunc) OnProgress(ev ProgressEvent) { f(ev) }
