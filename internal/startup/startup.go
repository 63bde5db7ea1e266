package startup

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"sola-docstore/internal/logging"

	"github.com/c2h5oh/datasize"
	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// checkOptionalDir verifies that path is a writable directory when it
// exists. A missing directory is fine; it is created when first needed.
func checkOptionalDir(path, name string) error {
	logging.Debug("  Checking %s folder: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Info("  %s folder does not exist yet: %s", name, path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s folder: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := testWriteAccess(path); err != nil {
		return fmt.Errorf("%s folder is not writable: %w", name, err)
	}
	logging.Info("  [OK] %s folder is writable: %s", name, path)
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

const rule = "------------------------------------------------------------"

// logSection prints a section heading in the startup log.
func logSection(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

// LogCacheInit logs the cache manager setup
func LogCacheInit(root string, knownBytes int64) {
	logSection("DOCUMENT CACHE")
	logging.Info("  Root:            %s", root)
	if knownBytes < 0 {
		logging.Info("  Size estimate:   computed on first write")
	}
}

// LogThumbnailInit logs the thumbnail pipeline setup
func LogThumbnailInit(vipsAvailable bool, workers int, extensions []string) {
	logSection("THUMBNAIL PIPELINE")
	logging.Info("  Workers:         %d", workers)
	if vipsAvailable {
		logging.Info("  [OK] libvips available")
	} else {
		logging.Warn("  libvips unavailable: PDF previews disabled")
	}
	logging.Debug("  Extensions:      %s", strings.Join(extensions, ", "))
}

// LogJanitorInit logs scan folder janitor setup
func LogJanitorInit(enabled bool, dir string, lifetime time.Duration) {
	if !enabled {
		logging.Info("  Scan folder cleaning disabled")
		return
	}
	logging.Info("  Scan folder cleaning: %s (lifetime %v)", dir, lifetime)
}

// GetRoutes lists every method and path template registered on router.
// Routes without a method matcher are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the access log settings and, at debug level, every
// registered route grouped by its leading path segment.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logSection("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			g := getRouteGroup(route.Path)
			groups[g] = append(groups[g], route)
		}
		names := make([]string, 0, len(groups))
		for g := range groups {
			names = append(names, g)
		}
		sort.Strings(names)

		for _, g := range names {
			label := g
			if label == "" {
				label = "root"
			}
			logging.Debug("  [%s]", label)
			for _, route := range groups[g] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  Access log:      %s", enabledString(true))
	if logHealthChecks {
		logging.Info("  Health checks:   logged")
	} else {
		logging.Info("  Health checks:   not logged (set %s=true to include)", KeyLogHealthChecks)
	}
}

// getRouteGroup returns the first path segment, or "api/<segment>" for
// routes under /api.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening address and the main endpoints.
func LogServerStarted(config ServerConfig) {
	base := "http://localhost:" + config.Port

	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Listening on:    :%s", config.Port)
	logging.Info("")
	logging.Info("  Scans:           %s/api/scans", base)
	logging.Info("  Cache stats:     %s/api/cache/stats", base)
	logging.Info("  Health:          %s/healthz", base)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         %s/metrics", base)
	} else {
		logging.Info("  Metrics:         %s", enabledString(false))
	}
	logging.Info(rule)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(rule + `
   _____ ____  __    ___       ____
  / ___// __ \/ /   /   |     / __ \____  __________
  \__ \/ / / / /   / /| |    / / / / __ \/ ___/ ___/
 ___/ / /_/ / /___/ ___ |   / /_/ / /_/ / /__(__  )
/____/\____/_____/_/  |_|  /_____/\____/\___/____/
` + rule)
	logging.Info("  Version:    %s (%s, built %s)", Version, Commit, BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:            %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		logging.Info("  GOMEMLIMIT:      %s", datasize.ByteSize(limit).HR())
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:        %s", hostname)
	}
}

// testWriteAccess creates and removes a probe file in dir.
func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return err
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("failed to remove write test file %s: %v", probe, err)
	}
	return nil
}
