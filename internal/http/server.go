package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"kpidash/internal/amqp"
	"kpidash/internal/config"
	applog "kpidash/internal/log"
	"kpidash/internal/middleware/ratelimit"
	"kpidash/internal/middleware/security"
	"kpidash/internal/middleware/trace"
	"kpidash/internal/page"
	"kpidash/internal/session"
	appweb "kpidash/web"
)

// Options are the collaborators of a Server. Registry and Composer are
// required.
type Options struct {
	Registry           *session.Registry
	Composer           *page.Composer
	Publisher          amqp.Publisher
	Ready              func(ctx context.Context) error
	Theme              config.Theme
	RateLimitPerMinute int
	SessionTTL         time.Duration
	Logger             *applog.Logger
}

// Server is the dashboard HTTP host.
type Server struct {
	http.Server
	templates *template.Template
	theme     template.CSS

	registry   *session.Registry
	composer   *page.Composer
	publisher  amqp.Publisher
	ready      func(ctx context.Context) error
	sessionTTL time.Duration

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	logger           *applog.Logger
	events           *applog.StructuredLogger
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime            time.Time
	renders           atomic.Int64
	selectionChanges  atomic.Int64
	selectionRejected atomic.Int64
	panelFailures     atomic.Int64
	publishFailures   atomic.Int64
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Registry == nil || opts.Composer == nil {
		return nil, errors.New("http server: registry and composer are required")
	}
	if opts.Publisher == nil {
		opts.Publisher = amqp.NoopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultConfig().TTL
	}

	t, err := template.New("").ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector(logger.Slog())

	s := &Server{
		templates:        t,
		theme:            themeCSS(opts.Theme),
		registry:         opts.Registry,
		composer:         opts.Composer,
		publisher:        opts.Publisher,
		ready:            opts.Ready,
		sessionTTL:       opts.SessionTTL,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, opts.Logger),
		logger:           logger,
		events:           applog.NewStructuredLogger(opts.Logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	))

	limitPost := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /selection", limitPost(http.HandlerFunc(s.handleSelection)))
	mux.HandleFunc("GET /api/page", s.handleAPIPage)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a template into a buffer so a failure can still become a
// clean 500.
func (s *Server) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
