package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/tomoflow/component"
	"github.com/kbukum/tomoflow/config"
	"github.com/kbukum/tomoflow/logger"
)

// DefaultGracefulTimeout bounds shutdown.
const DefaultGracefulTimeout = 15 * time.Second

// Config is satisfied by any configuration struct that embeds
// config.ServiceConfig and cascades ApplyDefaults and Validate to its
// own sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

// Hook runs after startup or before shutdown.
type Hook func(ctx context.Context) error

// Option adjusts NewApp.
type Option func(*settings)

type settings struct {
	log     *logger.Logger
	timeout time.Duration
}

// WithLogger uses l instead of initialising the global logger from the
// configuration's logging section.
func WithLogger(l *logger.Logger) Option { return func(s *settings) { s.log = l } }

// WithGracefulTimeout bounds how long stop hooks and components get.
func WithGracefulTimeout(d time.Duration) Option { return func(s *settings) { s.timeout = d } }

// App owns the configuration, logger and components of one tomoflow
// invocation.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
}

// NewApp completes and validates cfg before anything is started.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	s := settings{timeout: DefaultGracefulTimeout}
	for _, opt := range opts {
		opt(&s)
	}

	svc := cfg.GetServiceConfig()
	if s.log == nil {
		logger.Init(svc.Logging)
		s.log = logger.GetGlobalLogger()
	}
	return &App[C]{
		Name:            svc.Name,
		Version:         svc.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(s.log),
		Logger:          s.log,
		gracefulTimeout: s.timeout,
	}, nil
}

// RegisterComponent adds c to the components started before the task.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnStart adds hooks run once every component has started.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnStop adds hooks run before the components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

// ReadyCheck returns an error naming every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	hs := a.Components.HealthAll(ctx)
	if component.Overall(hs) == component.StatusHealthy {
		return nil
	}
	var bad []string
	for _, h := range hs {
		if h.Status == component.StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += " (" + h.Message + ")"
		}
		bad = append(bad, detail)
	}
	return fmt.Errorf("unhealthy components: %s", strings.Join(bad, ", "))
}

// RunTask starts the components, runs task and shuts down. SIGINT and
// SIGTERM cancel the task's context. The task's error wins over a
// shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.Shutdown(); stopErr != nil {
			a.Logger.Warn("shutdown after failed startup", logger.ErrorFields("stop", stopErr))
		}
		return err
	}

	taskCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	taskErr := task(taskCtx)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		a.Logger.Info("interrupted by signal")
	}
	if stopErr := a.Shutdown(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App[C]) startup(ctx context.Context) error {
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	for i, h := range a.onStart {
		if err := h(ctx); err != nil {
			return fmt.Errorf("start hook %d: %w", i, err)
		}
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.ErrorFields("ready", err))
	}
	return nil
}

// Shutdown runs the stop hooks, then stops every started component within
// the graceful timeout. It is safe to call more than once.
func (a *App[C]) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var firstErr error
	for i, h := range a.onStop {
		if err := h(ctx); err != nil {
			a.Logger.Error("stop hook failed", logger.ErrorFields("stop", err))
			if firstErr == nil {
				firstErr = fmt.Errorf("stop hook %d: %w", i, err)
			}
		}
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.ErrorFields("stop", err))
		if firstErr == nil {
			firstErr = err
		}
	}
	a.Logger.Debug("shutdown complete")
	return firstErr
}
