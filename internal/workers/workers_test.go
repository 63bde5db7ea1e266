package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		override   int
		multiplier float64
		limit      int
		want       int
	}{
		{name: "one per CPU", multiplier: 1.0, want: cpus},
		{name: "two per CPU", multiplier: 2.0, want: cpus * 2},
		{name: "limit caps computed", multiplier: 2.0, limit: 1, want: 1},
		{name: "tiny multiplier floors at one", multiplier: 0.0001, want: 1},
		{name: "override wins", override: 3, multiplier: 1.0, want: 3},
		{name: "override clamped by limit", override: 50, multiplier: 1.0, limit: 4, want: 4},
		{name: "negative override ignored", override: -2, multiplier: 1.0, want: cpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.override, tt.multiplier, tt.limit)
			if got != tt.want {
				t.Errorf("Count(%d, %v, %d) = %d, want %d", tt.override, tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestForCPU(t *testing.T) {
	cpus := runtime.GOMAXPROCS(0)

	if got := ForCPU(0, 0); got != cpus {
		t.Errorf("ForCPU(0, 0) = %d, want %d", got, cpus)
	}
	if got := ForCPU(0, 1); got != 1 {
		t.Errorf("ForCPU(0, 1) = %d, want 1", got)
	}
	if got := ForCPU(5, 0); got != 5 {
		t.Errorf("ForCPU(5, 0) = %d, want 5", got)
	}
}
