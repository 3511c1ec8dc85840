package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/cache"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/middleware/ratelimit"
	"centrefunds/internal/middleware/security"
	"centrefunds/internal/middleware/trace"
	"centrefunds/internal/services"
)

const (
	readyTimeout      = 2 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// AllocationAPI is the part of services.AllocationService the handlers use.
type AllocationAPI interface {
	Preview(ctx context.Context, r core.DateRange) (allocation.Result, error)
	Close(ctx context.Context, r core.DateRange, trigger string) (services.CloseResult, error)
	Stored(ctx context.Context, r core.DateRange) ([]core.Allocation, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server. Queue and Runs are optional: when Queue is set
// closes are enqueued instead of run in the request.
type Options struct {
	Addr    string
	Service AllocationAPI
	Queue   services.PeriodRunner
	Runs    services.RunFinder
	Ready   Pinger
	// Previews caches engine output per date range.
	Previews  cache.Cache[allocation.Result]
	Logger    *log.Logger
	CloseRate ratelimit.Config
}

// Server serves the allocation JSON API.
type Server struct {
	http.Server

	service  AllocationAPI
	queue    services.PeriodRunner
	runs     services.RunFinder
	ready    Pinger
	previews *cache.Loader[allocation.Result]
	logger   *log.Logger

	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	previews := opts.Previews
	if previews == nil {
		previews = cache.NewLRUCache[allocation.Result](64, 5*time.Minute)
	}

	detector := security.NewDetector()
	s := &Server{
		service:  opts.Service,
		queue:    opts.Queue,
		runs:     opts.Runs,
		ready:    opts.Ready,
		previews: cache.NewLoader(previews),
		logger:   logger,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector: detector,
		limiter:  ratelimit.NewLimiter(opts.CloseRate),
		started:  time.Now(),
	}

	limitClose := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().RequestID(trace.GetRequestID(r.Context())).Write(w)
	})

	// allocation routes log under their own component
	api := log.ComponentMiddleware(log.ComponentAllocation)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/api/allocation/all-centres", api(http.HandlerFunc(s.handlePreview)))
	mux.Handle("/api/allocation/get", api(http.HandlerFunc(s.handleStored)))
	mux.Handle("/api/allocation/close", limitClose(api(http.HandlerFunc(s.handleClose))))
	mux.Handle("/api/allocation/totals", api(http.HandlerFunc(s.handleTotals)))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// chain wraps h so that headers are set first and the request ID is known
// before the logger is placed in the context.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.detector.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
