package search

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a search.
type SearchMonitor interface {
	Start(query string, queryWords []string)
	AfterScan(scanned, matched int)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string) {}
func (n *noopMonitor) AfterScan(_, _ int)         {}
func (n *noopMonitor) Finish(_ []*Result)         {}
