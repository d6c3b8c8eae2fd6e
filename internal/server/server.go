package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jpalmerr/solarboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	readHeaderTimeout = 10 * time.Second

	// maxRequestBody caps POST bodies.
	maxRequestBody = 1 << 20

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Solar Dashboard"

	// titlePlaceholder is the marker in HTML that gets replaced with the title.
	titlePlaceholder = "{{.Title}}"
)

// Config configures a [Server].
type Config struct {
	// Port is the TCP port to listen on.
	Port int

	// Assets holds the embedded landing page at assets/index.html. May be nil.
	Assets fs.FS

	// StaticDir, when set, is served at "/" and takes precedence over Assets
	// for index.html.
	StaticDir string

	// Title replaces the title placeholder in the landing page.
	Title string

	// UpdateRateLimit is the number of range updates allowed per client per
	// minute. Zero disables the limit.
	UpdateRateLimit int

	Logger zerolog.Logger
}

// Server handles HTTP requests for the dashboard page and API.
type Server struct {
	store      store.Store
	cfg        Config
	logger     zerolog.Logger
	httpServer *http.Server
	addr       string
}

// NewServer creates a [Server] backed by st.
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, cfg Config) *Server {
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	return &Server{
		store:  st,
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Handler builds the router with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recoverer)
	r.Use(requestID)
	r.Use(observe)
	r.Use(s.logRequests)

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/solar-data", s.handleSolarData)
		r.Get("/events", s.handleEvents)
		r.Group(func(r chi.Router) {
			if s.cfg.UpdateRateLimit > 0 {
				r.Use(updateRateLimit(s.cfg.UpdateRateLimit, time.Minute))
			}
			r.Post("/update-panel-range", s.handleUpdateRange)
		})
	})

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start returns once the listener is bound. The server runs until ctx is
// cancelled, then shuts down gracefully.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}
	s.addr = ln.Addr().String()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		// request contexts derive from ctx, so long-lived handlers like
		// the event stream end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("http server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("http server shutdown error")
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	return s.addr
}
