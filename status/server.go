package status

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/tomoflow/component"
	"github.com/kbukum/tomoflow/driver"
	"github.com/kbukum/tomoflow/logger"
)

// Run is the view of a pipeline run the server reports on. *driver.Driver
// implements it.
type Run interface {
	Status() driver.Status
	Dataset(name string) (driver.DatasetInfo, error)
	Datasets() []driver.DatasetInfo
}

var _ Run = (*driver.Driver)(nil)

// HealthChecker returns the health of the process's components.
type HealthChecker func(ctx context.Context) []component.Health

// Server is the status HTTP server.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	cfg        Config
	run        Run
	health     HealthChecker
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New builds a server reporting on run. health may be nil.
func New(cfg Config, run Run, log *logger.Logger, health HealthChecker) *Server {
	cfg.ApplyDefaults()
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		cfg:    cfg,
		run:    run,
		health: health,
		log:    log.WithComponent("status"),
	}
	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log))
	s.routes()

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h2c.NewHandler(s.engine, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/runs", s.handleRuns)
	s.engine.GET("/datasets", s.handleDatasets)
	s.engine.GET("/datasets/:name", s.handleDataset)
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start binds the port and serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("status server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("status server started", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting at most five seconds for requests
// in flight.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.log.Info("status server stopped")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
