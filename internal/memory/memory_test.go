package memory

import (
	"runtime/debug"
	"sync"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestConfigure(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })

	tests := []struct {
		name      string
		env       map[string]string
		wantSrc   string
		wantSet   bool
		wantLimit int64
		wantRatio float64
	}{
		{
			name:    "nothing set",
			env:     map[string]string{},
			wantSrc: "none",
		},
		{
			name:      "byte count with default ratio",
			env:       map[string]string{"MEMORY_LIMIT": "1073741824"},
			wantSrc:   "MEMORY_LIMIT",
			wantSet:   true,
			wantLimit: int64(float64(1<<30) * DefaultMemoryRatio),
			wantRatio: DefaultMemoryRatio,
		},
		{
			name:      "datasize string with custom ratio",
			env:       map[string]string{"MEMORY_LIMIT": "512MB", "MEMORY_RATIO": "0.5"},
			wantSrc:   "MEMORY_LIMIT",
			wantSet:   true,
			wantLimit: 256 << 20,
			wantRatio: 0.5,
		},
		{
			name:      "ratio out of range",
			env:       map[string]string{"MEMORY_LIMIT": "1GB", "MEMORY_RATIO": "1.5"},
			wantSrc:   "MEMORY_LIMIT",
			wantSet:   true,
			wantLimit: int64(float64(1<<30) * DefaultMemoryRatio),
			wantRatio: DefaultMemoryRatio,
		},
		{
			name:      "unparseable ratio",
			env:       map[string]string{"MEMORY_LIMIT": "1GB", "MEMORY_RATIO": "most"},
			wantSrc:   "MEMORY_LIMIT",
			wantSet:   true,
			wantLimit: int64(float64(1<<30) * DefaultMemoryRatio),
			wantRatio: DefaultMemoryRatio,
		},
		{
			name:    "invalid limit",
			env:     map[string]string{"MEMORY_LIMIT": "lots"},
			wantSrc: "none",
		},
		{
			name:    "zero limit",
			env:     map[string]string{"MEMORY_LIMIT": "0"},
			wantSrc: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := configure(envMap(tt.env))
			if got.Source != tt.wantSrc {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSrc)
			}
			if got.Configured != tt.wantSet {
				t.Errorf("Configured = %v, want %v", got.Configured, tt.wantSet)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if tt.wantSet {
				if current := debug.SetMemoryLimit(-1); current != tt.wantLimit {
					t.Errorf("runtime limit = %d, want %d", current, tt.wantLimit)
				}
			}
		})
	}
}

func TestConfigureRespectsGOMEMLIMIT(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })

	debug.SetMemoryLimit(300 << 20)
	got := configure(envMap(map[string]string{
		"GOMEMLIMIT":   "300MiB",
		"MEMORY_LIMIT": "1GB",
	}))
	if got.Source != "GOMEMLIMIT" || !got.Configured {
		t.Fatalf("result = %+v", got)
	}
	if got.GoMemLimit != 300<<20 {
		t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, 300<<20)
	}
	if current := debug.SetMemoryLimit(-1); current != 300<<20 {
		t.Errorf("runtime limit changed to %d", current)
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	samples []bool
}

func (o *recordingObserver) ObserveMemory(_ float64, underPressure bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.samples = append(o.samples, underPressure)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.samples)
}

func TestMonitorHysteresis(t *testing.T) {
	var alloc uint64
	obs := &recordingObserver{}
	m := NewMonitor(Config{
		LimitBytes:        1000,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		Interval:          time.Hour,
	}, WithObserver(obs), withReader(func() uint64 { return alloc }))

	steps := []struct {
		alloc uint64
		want  bool
	}{
		{500, false},
		{800, false}, // between the marks, not yet critical
		{850, true},  // critical
		{750, true},  // still above the high mark
		{699, false}, // recovered
		{800, false},
		{900, true},
	}
	for i, step := range steps {
		alloc = step.alloc
		usage := m.Check()
		if want := float64(step.alloc) / 1000; usage != want {
			t.Errorf("step %d: usage = %v, want %v", i, usage, want)
		}
		if got := m.UnderPressure(); got != step.want {
			t.Errorf("step %d (alloc %d): UnderPressure = %v, want %v", i, step.alloc, got, step.want)
		}
	}

	if obs.count() != len(steps) {
		t.Errorf("observer saw %d samples, want %d", obs.count(), len(steps))
	}
	if m.Usage() != 0.9 {
		t.Errorf("Usage = %v, want 0.9", m.Usage())
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
	debug.SetMemoryLimit(1<<63 - 1)

	m := NewMonitor(DefaultConfig(), withReader(func() uint64 { return 1 << 40 }))
	if m.Limit() != 0 {
		t.Fatalf("Limit = %d, want 0", m.Limit())
	}
	if usage := m.Check(); usage != 0 {
		t.Errorf("Check = %v, want 0", usage)
	}
	if m.UnderPressure() {
		t.Error("monitor without limit reported pressure")
	}

	m.Start()
	m.Stop()
}

func TestMonitorFallsBackToGOMEMLIMIT(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
	debug.SetMemoryLimit(64 << 20)

	m := NewMonitor(DefaultConfig())
	if m.Limit() != 64<<20 {
		t.Errorf("Limit = %d, want %d", m.Limit(), 64<<20)
	}
}

func TestMonitorStartStop(t *testing.T) {
	obs := &recordingObserver{}
	m := NewMonitor(Config{
		LimitBytes:        1 << 40,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		Interval:          10 * time.Millisecond,
	}, WithObserver(obs))

	m.Start()
	m.Start()

	deadline := time.Now().Add(2 * time.Second)
	for obs.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if obs.count() == 0 {
		t.Error("monitor never sampled")
	}

	m.Stop()
	m.Stop()

	n := obs.count()
	time.Sleep(30 * time.Millisecond)
	if obs.count() != n {
		t.Error("monitor kept sampling after Stop")
	}
}

func TestMonitorStopWithoutStart(t *testing.T) {
	m := NewMonitor(Config{LimitBytes: 1000, Interval: time.Second})
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
