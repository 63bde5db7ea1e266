package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"sola-docstore/internal/logging"
)

// Observer receives each memory sample.
type Observer interface {
	ObserveMemory(usage float64, underPressure bool)
}

type nopObserver struct{}

func (nopObserver) ObserveMemory(float64, bool) {}

// Config controls a Monitor.
type Config struct {
	// LimitBytes is the budget usage is measured against. 0 falls back to
	// GOMEMLIMIT, and without either the monitor stays idle.
	LimitBytes int64

	// HighWaterMark is the usage ratio below which pressure clears.
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which pressure starts.
	CriticalWaterMark float64

	Interval time.Duration
}

// DefaultConfig returns the monitor settings used by the server.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		Interval:          5 * time.Second,
	}
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithObserver reports every sample to o.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		if o != nil {
			m.observer = o
		}
	}
}

// withReader replaces the heap sampler.
func withReader(read func() uint64) Option {
	return func(m *Monitor) {
		m.read = read
	}
}

// Monitor samples heap usage and reports memory pressure.
type Monitor struct {
	config   Config
	limit    int64
	observer Observer
	read     func() uint64

	mu       sync.RWMutex
	alloc    uint64
	pressure bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewMonitor creates a monitor. It does nothing until Start is called.
func NewMonitor(config Config, opts ...Option) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
		}
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}

	m := &Monitor{
		config:   config,
		limit:    limit,
		observer: nopObserver{},
		read:     heapAlloc,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Limit returns the budget in bytes, or 0 when none is known.
func (m *Monitor) Limit() int64 {
	return m.limit
}

// Start begins periodic sampling. Without a limit the monitor stays idle.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		if m.limit == 0 {
			logging.Info("Memory monitor: no memory limit configured, thumbnail throttling disabled")
			close(m.done)
			return
		}
		logging.Info("Memory monitor: budget %d MB, checking every %v", m.limit/(1024*1024), m.config.Interval)
		go m.loop()
	})
}

// Stop ends sampling and waits for the loop to exit. It is safe to call
// more than once, and before Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.startOnce.Do(func() {
		close(m.done)
	})
	<-m.done
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-m.stopChan:
			return
		}
	}
}

// Check takes one sample and returns the usage ratio.
func (m *Monitor) Check() float64 {
	if m.limit == 0 {
		return 0
	}

	alloc := m.read()
	usage := float64(alloc) / float64(m.limit)

	m.mu.Lock()
	m.alloc = alloc
	wasUnderPressure := m.pressure
	switch {
	case usage >= m.config.CriticalWaterMark:
		m.pressure = true
	case usage < m.config.HighWaterMark:
		m.pressure = false
	}
	pressure := m.pressure
	m.mu.Unlock()

	if pressure && !wasUnderPressure {
		logging.Warn("Memory critical (%.1f%% of limit), rejecting new thumbnails", usage*100)
		go runtime.GC()
	} else if !pressure && wasUnderPressure {
		logging.Info("Memory recovered (%.1f%% of limit), accepting thumbnails", usage*100)
	}

	m.observer.ObserveMemory(usage, pressure)
	return usage
}

// UnderPressure reports whether usage crossed the critical mark and has not
// yet fallen below the high mark.
func (m *Monitor) UnderPressure() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressure
}

// Usage returns the last sampled usage ratio, 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}
