package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/anyroot/anyroot/internal/config"
	"github.com/anyroot/anyroot/internal/logging"
	"github.com/anyroot/anyroot/internal/observability"
	"github.com/anyroot/anyroot/internal/ratelimit"
	"github.com/anyroot/anyroot/internal/relpath"
	"github.com/anyroot/anyroot/internal/rewrite"
)

type Server struct {
	root     string
	index    string
	router   *Router
	rewriter *rewrite.Rewriter
	sessions *sessionStore
	cookie   string
	limiter  *ratelimit.Limiter
	rlStatus int

	accessLog *logging.AccessLogger
	metrics   *observability.Metrics

	requestCount uint64
}

func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	router, err := NewRouter(cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		root:   cfg.ResolvePath(cfg.Site.Root),
		index:  cfg.IndexFile(),
		router: router,
	}

	if cfg.Rewrite.Enabled {
		rw, err := rewrite.New(rewrite.Options{
			Attributes: cfg.Rewrite.Attributes,
			Extensions: cfg.Rewrite.Extensions,
		})
		if err != nil {
			return nil, fmt.Errorf("build rewriter: %w", err)
		}
		srv.rewriter = rw
	}

	if cfg.Sessions.Enabled {
		srv.sessions = newSessionStore(cfg.SessionTTL())
		srv.cookie = cfg.SessionCookieName()
	}

	if cfg.RateLimit.Enabled {
		srv.limiter = ratelimit.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		srv.rlStatus = cfg.RateLimit.StatusCode
		if srv.rlStatus <= 0 {
			srv.rlStatus = http.StatusTooManyRequests
		}
	}

	return srv, nil
}

func (s *Server) SetAccessLogger(logger *logging.AccessLogger) {
	s.accessLog = logger
}

func (s *Server) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entry := logging.Access{
		Timestamp: start.UTC(),
		RequestID: s.newRequestID(),
		ClientIP:  clientIP(r),
		Method:    r.Method,
		Path:      r.URL.Path,
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			http.Error(rec, "method not allowed", http.StatusMethodNotAllowed)
		})
		return
	}

	if s.limiter != nil && !s.limiter.Allow(entry.ClientIP, start) {
		s.finish(w, entry, start, true, func(rec *statusRecorder) {
			http.Error(rec, "rate limit exceeded", s.rlStatus)
		})
		return
	}

	mount, ok := s.router.Match(r.URL.Path)
	if !ok {
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			http.NotFound(rec, r)
		})
		return
	}
	entry.Mount = mount.ID

	urlSegs := relpath.Normalize(relpath.Segment(r.URL.Path))
	if len(urlSegs) > 0 && urlSegs[0] == ".." {
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			http.Error(rec, "path escapes site root", http.StatusBadRequest)
		})
		return
	}

	if s.sessions != nil {
		s.ensureSession(w, r, &entry, start)
	}

	s.serveFile(w, r, mount, urlSegs, entry, start)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, mount Mount, urlSegs []string, entry logging.Access, start time.Time) {
	rest := strings.TrimPrefix(r.URL.Path, mount.URLPrefix)
	diskSegs := relpath.Normalize(relpath.Segment(rest))
	if len(diskSegs) > 0 && diskSegs[0] == ".." {
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			http.Error(rec, "path escapes site root", http.StatusBadRequest)
		})
		return
	}

	diskPath := s.root
	if mount.Dir != "" {
		diskPath = filepath.Join(diskPath, filepath.FromSlash(mount.Dir))
	}
	for _, seg := range diskSegs {
		diskPath = filepath.Join(diskPath, seg)
	}

	info, err := os.Stat(diskPath)
	if err != nil {
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			http.NotFound(rec, r)
		})
		return
	}

	pagePath := strings.Join(urlSegs, "/")
	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			s.finish(w, entry, start, false, func(rec *statusRecorder) {
				http.Redirect(rec, r, r.URL.Path+"/", http.StatusMovedPermanently)
			})
			return
		}
		diskPath = filepath.Join(diskPath, s.index)
		if pagePath == "" {
			pagePath = s.index
		} else {
			pagePath = pagePath + "/" + s.index
		}
		info, err = os.Stat(diskPath)
		if err != nil {
			s.finish(w, entry, start, false, func(rec *statusRecorder) {
				http.NotFound(rec, r)
			})
			return
		}
	}

	if s.rewriter != nil && s.rewriter.WantsPath(pagePath) {
		content, err := os.ReadFile(diskPath)
		if err != nil {
			s.finish(w, entry, start, false, func(rec *statusRecorder) {
				http.Error(rec, "read error", http.StatusInternalServerError)
			})
			return
		}
		rewritten, count := s.rewriter.Rewrite(pagePath, content)
		entry.Rewrites = count
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			rec.Header().Set("Content-Type", "text/html; charset=utf-8")
			if r.Method == http.MethodHead {
				return
			}
			_, _ = rec.Write(rewritten)
		})
		return
	}

	// ServeContent rather than ServeFile: the URL path may still carry
	// in-root dot segments, which ServeFile rejects outright.
	file, err := os.Open(diskPath)
	if err != nil {
		s.finish(w, entry, start, false, func(rec *statusRecorder) {
			http.NotFound(rec, r)
		})
		return
	}
	defer file.Close()

	s.finish(w, entry, start, false, func(rec *statusRecorder) {
		http.ServeContent(rec, r, filepath.Base(diskPath), info.ModTime(), file)
	})
}

// finish runs the response, then writes the access log entry and
// metrics with the observed status and size.
func (s *Server) finish(w http.ResponseWriter, entry logging.Access, start time.Time, rateLimited bool, respond func(*statusRecorder)) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	respond(rec)

	entry.StatusCode = rec.status
	entry.Bytes = rec.bytes
	entry.DurationMS = time.Since(start).Milliseconds()

	if s.accessLog != nil {
		_ = s.accessLog.Write(entry)
	}
	if s.metrics != nil {
		s.metrics.Observe(entry, rateLimited)
	}
}

func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request, entry *logging.Access, now time.Time) {
	current := ""
	if cookie, err := r.Cookie(s.cookie); err == nil {
		current = cookie.Value
	}

	id, started := s.sessions.Touch(current, now)
	entry.SessionID = id
	if started {
		http.SetCookie(w, &http.Cookie{
			Name:     s.cookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		if s.metrics != nil {
			s.metrics.SessionStarted()
		}
	}
}

func (s *Server) newRequestID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return hex.EncodeToString(buf[:])
	}
	value := atomic.AddUint64(&s.requestCount, 1)
	return fmt.Sprintf("req-%d", value)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(data []byte) (int, error) {
	n, err := r.ResponseWriter.Write(data)
	r.bytes += int64(n)
	return n, err
}
