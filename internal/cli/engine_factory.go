package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/bookflow"
	"github.com/aretw0/bookflow/internal/config"
	"github.com/aretw0/bookflow/internal/logging"
	bfhttp "github.com/aretw0/bookflow/pkg/adapters/http"
	"github.com/aretw0/bookflow/pkg/adapters/file"
	"github.com/aretw0/bookflow/pkg/adapters/memory"
	bfnats "github.com/aretw0/bookflow/pkg/adapters/nats"
	"github.com/aretw0/bookflow/pkg/adapters/redis"
	"github.com/aretw0/bookflow/pkg/observability"
	"github.com/aretw0/bookflow/pkg/persistence/middleware"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/registry"
	"github.com/aretw0/bookflow/pkg/session"
	"github.com/aretw0/bookflow/pkg/validation"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Server bundles the components started by the serve command.
type Server struct {
	Engine  *bookflow.Engine
	Pool    *session.Pool
	Handler http.Handler
	Metrics *observability.Metrics

	closers []func() error
}

// Close releases the components in reverse start order.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewLogger creates the application logger described by cfg.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.LogFormat == "json"), nil
}

// NewRegistry builds the step registry with the configured postal pattern.
func NewRegistry(cfg *config.Config) (*registry.Registry, error) {
	rules, err := validation.New(validation.WithPostalPattern(cfg.AreaCheck.PostalPattern))
	if err != nil {
		return nil, err
	}
	return registry.New(rules, registry.BookingSteps()...)
}

// BuildServer wires the configured store, event publisher, metrics and
// booking engine behind the HTTP API.
func BuildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Server, err error) {
	srv := &Server{}
	defer func() {
		if err != nil {
			_ = srv.Close()
		}
	}()

	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := memory.NewCatalog(cfg.Services...)
	if err != nil {
		return nil, fmt.Errorf("invalid services: %w", err)
	}
	availability, err := memory.NewAvailability(cfg.Availability)
	if err != nil {
		return nil, fmt.Errorf("invalid availability: %w", err)
	}

	hooks := observability.LoggingHooks(logger)
	if cfg.Metrics.Enabled {
		srv.Metrics, err = observability.NewMetrics(nil)
		if err != nil {
			return nil, err
		}
		hooks = observability.Combine(srv.Metrics.Hooks(), hooks)
	}

	opts := []bookflow.Option{
		bookflow.WithRegistry(reg),
		bookflow.WithSettings(settings),
		bookflow.WithCatalog(catalog),
		bookflow.WithAreaChecker(memory.NewAreaChecker(cfg.AreaCheck.Areas...)),
		bookflow.WithSlotProvider(availability),
		bookflow.WithSubmitter(memory.NewSubmitter(memory.ReserveIn(availability))),
		bookflow.WithLifecycleHooks(hooks),
		bookflow.WithLogger(logger),
		bookflow.WithTenant(cfg.Tenant),
		bookflow.WithDebounce(cfg.AreaCheck.Debounce),
		bookflow.WithRequestTimeout(cfg.AreaCheck.RequestTimeout),
	}

	if cfg.NATS.Enabled() {
		pub, err := connectPublisher(ctx, srv, cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bookflow.WithPublisher(pub))
	}

	srv.Engine, err = bookflow.New(opts...)
	if err != nil {
		return nil, err
	}

	manager, err := newManager(ctx, srv, cfg, logger)
	if err != nil {
		return nil, err
	}

	srv.Pool = session.NewPool(srv.Engine, manager, session.WithPoolLogger(logger))
	srv.closers = append(srv.closers, func() error {
		srv.Pool.Close()
		return nil
	})

	handlerOpts := []bfhttp.Option{bfhttp.WithLogger(logger)}
	if srv.Metrics != nil {
		handlerOpts = append(handlerOpts, bfhttp.WithMetrics(srv.Metrics.Handler()))
	}
	srv.Handler = bfhttp.NewHandler(srv.Engine, srv.Pool, handlerOpts...)
	return srv, nil
}

func newManager(ctx context.Context, srv *Server, cfg *config.Config, logger *slog.Logger) (*session.Manager, error) {
	var store ports.StateStore
	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.Store.LockTTL),
	}

	switch cfg.Store.Driver {
	case config.DriverRedis:
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithTTL(cfg.Store.TTL),
			redis.WithTenant(cfg.Tenant),
		)
		srv.closers = append(srv.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		store = rs
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(rs.Client(), rs.Prefix())))
		logger.Info("using redis session store", "addr", cfg.Store.Redis.Addr, "prefix", rs.Prefix())
	case config.DriverFile:
		fs := file.New(cfg.Store.Dir, file.WithTenant(cfg.Tenant))
		store = fs
		logger.Info("using file session store", "dir", fs.Dir())
	default:
		store = memory.NewStore()
		logger.Info("using in-memory session store")
	}

	var mws []middleware.Middleware
	if len(cfg.Store.PIIMask) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Store.PIIMask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Store.EncryptionKey, cfg.Tenant)
		if err != nil {
			return nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	return session.NewManager(middleware.Chain(store, mws...), managerOpts...), nil
}

func connectPublisher(ctx context.Context, srv *Server, cfg *config.Config, logger *slog.Logger) (*bfnats.Publisher, error) {
	var nc *nats.Conn
	if cfg.NATS.Embedded {
		ns, err := bfnats.StartEmbedded(cfg.NATS.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("starting embedded nats: %w", err)
		}
		nc, err = bfnats.ConnectInProcess(ns)
		if err != nil {
			ns.Shutdown()
			return nil, err
		}
		srv.closers = append(srv.closers, func() error { return bfnats.Shutdown(nc, ns, logger) })
	} else {
		var err error
		nc, err = bfnats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}
		srv.closers = append(srv.closers, func() error { return bfnats.Shutdown(nc, nil, logger) })
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	if _, err := bfnats.SetupStream(ctx, js, jetstream.FileStorage); err != nil {
		return nil, fmt.Errorf("creating booking stream: %w", err)
	}
	logger.Info("publishing booking events", "stream", bfnats.StreamName, "embedded", cfg.NATS.Embedded)
	return bfnats.NewPublisher(js, bfnats.WithTenant(cfg.Tenant), bfnats.WithLogger(logger)), nil
}
