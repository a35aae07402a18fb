package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/GriffinCanCode/AgentOS/schedctl/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/proc"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/sched"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/tickets"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/syscall"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and the process subsystem behind it
type Server struct {
	router     *gin.Engine
	table      *proc.Table
	sched      *sched.State
	dispatcher *syscall.Dispatcher
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer

	halted   chan struct{}
	haltOnce sync.Once
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewOrNop(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing schedctl",
		zap.String("port", cfg.Server.Port),
		zap.Int("pool", cfg.Scheduler.TotalTickets),
		zap.Int("default_tickets", cfg.Scheduler.DefaultTickets),
		zap.String("policy", sched.Policy(cfg.Scheduler.Policy).String()),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("schedctl", logger.Component("tracing"))

	clock := proc.NewClock()
	table := proc.NewTable(proc.Config{
		Pool:           cfg.Scheduler.TotalTickets,
		DefaultTickets: cfg.Scheduler.DefaultTickets,
		MaxProcs:       cfg.Scheduler.MaxProcs,
		MaxMemory:      cfg.Scheduler.MaxMemory,
	}, clock, logger.Component("proc"))

	acct := tickets.New(table, cfg.Scheduler.TotalTickets, logger.Component("tickets"))
	state := sched.New(
		sched.Policy(cfg.Scheduler.Policy),
		sched.NewBroadcaster(0),
		logger.Component("sched"),
	)

	s := &Server{
		table:   table,
		sched:   state,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
		halted:  make(chan struct{}),
	}

	s.dispatcher = syscall.New(table, acct, state, logger.Component("syscall")).
		WithRecorder(metrics).
		WithHalt(s.halt)

	if cfg.Scheduler.BootManifest != "" {
		if err := s.boot(cfg.Scheduler.BootManifest); err != nil {
			tracer.Close()
			return nil, err
		}
	}

	clock.OnTick(s.observeTick)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(rl))
		} else {
			router.Use(middleware.RateLimit(rl))
		}
	}

	handlers := apihttp.NewHandlers(s.dispatcher, table, state, logger.Component("http"))
	handlers.Register(router)

	wsHandler := ws.NewHandler(state.Events(), logger.Component("ws"))
	router.GET("/scheduler/trace/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.router = router

	logger.Info("Server initialized successfully")
	return s, nil
}

// boot spawns the manifest's processes as children of init
func (s *Server) boot(path string) error {
	span, _ := s.tracer.StartSpan(context.Background(), "boot")
	span.SetTag("manifest", path)
	defer func() {
		span.Finish()
		s.tracer.Submit(span)
	}()

	manifest, err := config.LoadManifest(path)
	if err != nil {
		span.SetError(err)
		return err
	}

	for _, spec := range manifest.Processes {
		if _, err := s.table.Spawn(proc.InitPID, spec.Name, spec.Tickets, tickets.ForkPolicy(spec.ForkPolicy)); err != nil {
			err = fmt.Errorf("boot process %q: %w", spec.Name, err)
			span.SetError(err)
			return err
		}
	}

	s.logger.Info("Boot manifest loaded",
		zap.String("path", path),
		zap.Int("processes", len(manifest.Processes)),
	)
	return nil
}

func (s *Server) observeTick(tick uint64) {
	live := s.table.Live()

	before := s.sched.TraceCounter()
	s.sched.Observe(tick, live)
	if s.sched.TraceCounter() != before {
		s.metrics.IncTraceEvents()
	}

	s.metrics.ObserveScheduler(tick, live, s.table.TotalTickets(), int(s.sched.Policy()))
}

func (s *Server) halt() {
	s.haltOnce.Do(func() {
		close(s.halted)
	})
}

// Halted is closed once the shutdown syscall has run
func (s *Server) Halted() <-chan struct{} {
	return s.halted
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dispatcher returns the syscall dispatcher
func (s *Server) Dispatcher() *syscall.Dispatcher {
	return s.dispatcher
}

// Run drives the clock and serves HTTP until ctx ends or the shutdown
// syscall halts the machine.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if limit := s.config.Server.MaxConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		s.table.Clock().Run(gctx, s.config.Scheduler.TickInterval)
		return nil
	})

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.logger.Info("Context done, stopping server")
		case <-s.halted:
			s.logger.Info("Halt requested, stopping server")
		}

		// Cancelling first releases handlers blocked in wait or sleep.
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close releases resources held by the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return nil
}
