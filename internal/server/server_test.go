package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anyroot/anyroot/internal/config"
	"github.com/anyroot/anyroot/internal/logging"
)

func sampleSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"index.html":            `<a href="/docs/guide.html">guide</a>`,
		"css/site.css":          "body {}",
		"docs/guide.html":       `<link href="/css/site.css"><a href="/">home</a>`,
		"docs/index.html":       `<img src="/img/logo.png">`,
		"static/logo.png":       "png-bytes",
		"deep/a/b/page.html":    `<a href="/docs/guide.html">g</a>`,
		"plain/readme.txt":      "hello",
		"docs/sub/nested.html":  `<a href="/docs/guide.html">up</a>`,
		"img/logo.png":          "png-bytes",
		"mounted/extra/m.html":  `<a href="/css/site.css">c</a>`,
		"mounted/extra/raw.txt": "raw",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func sampleConfig(root string) *config.Config {
	return &config.Config{
		ConfigVersion: 1,
		Server:        config.ServerConfig{Listen: ":0"},
		Site:          config.SiteConfig{Root: root},
		Rewrite:       config.RewriteConfig{Enabled: true},
	}
}

func newServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return srv
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestServerServesStatic(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/plain/readme.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Fatalf("expected body hello, got %q", rec.Body.String())
	}
}

func TestServerRewritesNestedPage(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/docs/guide.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="../css/site.css"`) {
		t.Fatalf("stylesheet link not relativized: %q", body)
	}
	if !strings.Contains(body, `href="../"`) {
		t.Fatalf("home link not relativized: %q", body)
	}
}

func TestServerDirectoryIndex(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/docs/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `src="../img/logo.png"`) {
		t.Fatalf("index image not relativized: %q", rec.Body.String())
	}
}

func TestServerRedirectsDirectory(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/docs")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/docs/" {
		t.Fatalf("expected redirect to /docs/, got %q", loc)
	}
}

func TestServerRejectsEscape(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/../../etc/passwd")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServerDotSegmentsStayInsideRoot(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/docs/../plain/readme.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Fatalf("expected body hello, got %q", rec.Body.String())
	}
}

func TestServerNotFound(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	rec := get(srv, "http://example.com/missing.html")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := newServer(t, sampleConfig(sampleSite(t)))

	req := httptest.NewRequest(http.MethodPost, "http://example.com/", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestServerMounts(t *testing.T) {
	cfg := sampleConfig(sampleSite(t))
	cfg.Site.Mounts = []config.Mount{
		{URLPrefix: "/extra/", Dir: "mounted/extra"},
		{URLPrefix: "/", Dir: ""},
	}
	srv := newServer(t, cfg)

	rec := get(srv, "http://example.com/extra/raw.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from mount, got %d", rec.Code)
	}
	if rec.Body.String() != "raw" {
		t.Fatalf("expected raw, got %q", rec.Body.String())
	}

	rec = get(srv, "http://example.com/plain/readme.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from root mount, got %d", rec.Code)
	}
}

func TestServerRateLimit(t *testing.T) {
	cfg := sampleConfig(sampleSite(t))
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	srv := newServer(t, cfg)

	if rec := get(srv, "http://example.com/plain/readme.txt"); rec.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rec.Code)
	}
	if rec := get(srv, "http://example.com/plain/readme.txt"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request limited, got %d", rec.Code)
	}
}

func TestServerSessionCookie(t *testing.T) {
	cfg := sampleConfig(sampleSite(t))
	cfg.Sessions = config.SessionConfig{Enabled: true}
	srv := newServer(t, cfg)

	rec := get(srv, "http://example.com/plain/readme.txt")
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != config.DefaultCookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/plain/readme.txt", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	srv.ServeHTTP(rec2, req)
	if len(rec2.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for live session")
	}
}

func TestServerAccessLog(t *testing.T) {
	cfg := sampleConfig(sampleSite(t))
	srv := newServer(t, cfg)

	var buf bytes.Buffer
	srv.SetAccessLogger(logging.NewAccessLogger(&buf))

	rec := get(srv, "http://example.com/docs/guide.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entry logging.Access
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode access entry: %v", err)
	}
	if entry.Path != "/docs/guide.html" {
		t.Fatalf("unexpected path %q", entry.Path)
	}
	if entry.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", entry.StatusCode)
	}
	if entry.Rewrites != 2 {
		t.Fatalf("expected 2 rewrites logged, got %d", entry.Rewrites)
	}
	if entry.RequestID == "" {
		t.Fatalf("expected request id")
	}
}
