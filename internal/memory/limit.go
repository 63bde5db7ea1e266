package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"sola-docstore/internal/logging"

	"github.com/c2h5oh/datasize"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for libvips and goroutine stacks.
const DefaultMemoryRatio = 0.75

// LimitResult describes what ConfigureFromEnv did.
type LimitResult struct {
	Configured bool
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO.
// Call it early in main, before large allocations.
func ConfigureFromEnv() LimitResult {
	return configure(os.Getenv)
}

func configure(getenv func(string) string) LimitResult {
	if env := getenv("GOMEMLIMIT"); env != "" {
		result := LimitResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	raw := strings.TrimSpace(getenv("MEMORY_LIMIT"))
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT left unconfigured")
		return LimitResult{Source: "none"}
	}

	var containerLimit datasize.ByteSize
	if err := containerLimit.UnmarshalText([]byte(raw)); err != nil || containerLimit == 0 || containerLimit > math.MaxInt64 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return LimitResult{Source: "none"}
	}

	ratio := DefaultMemoryRatio
	if s := getenv("MEMORY_RATIO"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using %.2f", s, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0-1], using %.2f", s, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		datasize.ByteSize(goMemLimit).HR(), ratio*100, containerLimit.HR())

	return LimitResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: int64(containerLimit),
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}
