package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"sola-docstore/internal/logging"
	"sola-docstore/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return &buf
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw.statusCode != http.StatusOK || rw.bytesWritten != 0 || rw.wroteHeader {
		t.Fatalf("unexpected initial state: %+v", rw)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("status = %d, want the first WriteHeader to stick", rw.statusCode)
	}

	data := []byte("test data")
	n, err := rw.Write(data)
	if err != nil || n != len(data) {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if rw.bytesWritten != int64(len(data)) {
		t.Errorf("bytesWritten = %d, want %d", rw.bytesWritten, len(data))
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{"logs api requests", "/api/scans", DefaultLoggingConfig(), true},
		{"skips metrics scrapes", "/metrics", DefaultLoggingConfig(), false},
		{"skips health checks by default", "/healthz", DefaultLoggingConfig(), false},
		{"logs health checks when enabled", "/readyz", LoggingConfig{LogHealthChecks: true}, true},
		{"skips configured prefixes", "/api/cache/stats", LoggingConfig{SkipPaths: []string{"/api/cache"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			}))

			req := httptest.NewRequest("GET", tt.path+"?width=200", http.NoBody)
			req.Header.Set("User-Agent", "scanner client")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			logged := strings.Contains(buf.String(), tt.path)
			if logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v; output: %q", logged, tt.expectLogging, buf.String())
			}
			if logged && !strings.Contains(buf.String(), `"scanner client"`) {
				t.Errorf("user agent not quoted: %q", buf.String())
			}
		})
	}
}

func TestAccessLogLine(t *testing.T) {
	buf := captureLog(t)

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	req := httptest.NewRequest("GET", "/api/scans", http.NoBody)
	req.RemoteAddr = "10.1.2.3:4000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "[WARN] ") {
		t.Errorf("5xx not logged as warning: %q", line)
	}

	fields := strings.Fields(line[strings.Index(line, "[WARN] ")+len("[WARN] "):])
	if len(fields) != 12 {
		t.Fatalf("got %d fields, want 12: %q", len(fields), line)
	}
	want := map[int]string{2: "10.1.2.3", 3: "GET", 4: "/api/scans", 5: "-", 6: "500", 9: "-", 10: "-", 11: "-"}
	for i, v := range want {
		if fields[i] != v {
			t.Errorf("field %d = %q, want %q", i, fields[i], v)
		}
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"nul\x00byte", "nulbyte"},
		{"esc\x1b[31mred", "esc[31mred"},
		{"tab\tkept", "tab\tkept"},
		{"del\x7fchar", "delchar"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", nil, "192.168.1.7:51234", "192.168.1.7"},
		{"ipv6 remote addr", nil, "[::1]:8080", "::1"},
		{"remote addr without port", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompressionMiddleware(t *testing.T) {
	largeJSON := `{"scans":"` + strings.Repeat("a", 4096) + `"}`

	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		body           string
		wantGzip       bool
	}{
		{"large json", "gzip, deflate", "application/json", largeJSON, true},
		{"small json", "gzip", "application/json", `{"ok":true}`, false},
		{"client without gzip", "", "application/json", largeJSON, false},
		{"jpeg preview", "gzip", "image/jpeg", strings.Repeat("x", 4096), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, tt.body)
			}))

			req := httptest.NewRequest("GET", "/api/scans", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}

			gotGzip := w.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("gzip = %v, want %v", gotGzip, tt.wantGzip)
			}

			body := w.Body.Bytes()
			if gotGzip {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip.NewReader: %v", err)
				}
				body, err = io.ReadAll(zr)
				if err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionPreservesStatus(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/api/scans/x/thumbnail", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics(DefaultMetricsConfig()))
	router.HandleFunc("/api/scans/{name}/thumbnail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/scans/{name}/thumbnail", "404")
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"a.pdf", "b.jpg", "c.png"} {
		req := httptest.NewRequest("GET", "/api/scans/"+name+"/thumbnail", http.NoBody)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("templated counter increased by %v, want 3", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", http.NoBody))

	if got := testutil.ToFloat64(counter) - before; got != 0 {
		t.Errorf("health check was recorded %v times", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/api/scans", "/api/scans"},
		{"/api/scans/x", "/api/scans/x"},
		{"/api/scans/x/thumbnail/extra", "/api/scans/x/{path}"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
