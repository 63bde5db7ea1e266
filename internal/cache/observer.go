package cache

// Observer receives cache events for metrics. The metrics package provides
// the production implementation.
type Observer interface {
	ObservePut(bytes int64, err error)
	// ObserveGet is called with "hit", "miss" or "error".
	ObserveGet(result string)
	ObserveRecompute(totalBytes int64)
	ObserveEviction(files int, bytes int64, shortfall bool)
}

type nopObserver struct{}

func (nopObserver) ObservePut(int64, error)          {}
func (nopObserver) ObserveGet(string)                {}
func (nopObserver) ObserveRecompute(int64)           {}
func (nopObserver) ObserveEviction(int, int64, bool) {}
