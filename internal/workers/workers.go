package workers

import "runtime"

// Count returns override when it is positive, otherwise GOMAXPROCS scaled by
// multiplier. The result is at least 1 and at most limit; a limit of 0 means
// no cap.
func Count(override int, multiplier float64, limit int) int {
	n := override
	if n <= 0 {
		n = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work such as image decoding.
func ForCPU(override, limit int) int {
	return Count(override, 1.0, limit)
}
