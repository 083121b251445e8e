package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/internal/config"
	"github.com/aretw0/railchat/pkg/adapters/delay"
	"github.com/aretw0/railchat/pkg/adapters/file"
	"github.com/aretw0/railchat/pkg/adapters/loam"
	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/adapters/nationalrail"
	"github.com/aretw0/railchat/pkg/adapters/redis"
	"github.com/aretw0/railchat/pkg/adapters/sqlite"
	"github.com/aretw0/railchat/pkg/extract"
	"github.com/aretw0/railchat/pkg/observability"
	"github.com/aretw0/railchat/pkg/persistence/middleware"
	"github.com/aretw0/railchat/pkg/ports"
	"github.com/aretw0/railchat/pkg/session"
)

// App is the wired set of collaborators shared by the chat, serve and mcp commands.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Engine    *railchat.Engine
	Sessions  *session.Manager
	Extractor *extract.Extractor
	Registry  *prometheus.Registry

	closers []func() error
}

// Build wires an App from the configuration. Debug adds debug hooks on top of the
// metrics hooks.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, debug bool) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	if err := app.build(ctx, debug); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, debug bool) error {
	cfg := a.Config

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(a.Registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	hooks := metrics.Hooks()
	if debug {
		hooks = observability.Combine(hooks, observability.DebugHooks(a.Logger))
	}

	stations, err := a.openStations(cfg.Stations)
	if err != nil {
		return err
	}
	help, err := openHelp(ctx, cfg.Help)
	if err != nil {
		return err
	}
	network, err := openNetwork(cfg.Delay)
	if err != nil {
		return err
	}
	store, locker, err := a.openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if store, err = sealStore(store, cfg.Store); err != nil {
		return err
	}

	fareOpts := []nationalrail.Option{
		nationalrail.WithBaseURL(cfg.Fares.BaseURL),
		nationalrail.WithHTTPClient(&http.Client{Timeout: cfg.Fares.Timeout}),
		nationalrail.WithLogger(a.Logger),
	}
	if cfg.Fares.UserAgent != "" {
		fareOpts = append(fareOpts, nationalrail.WithUserAgent(cfg.Fares.UserAgent))
	}

	a.Engine, err = railchat.New(
		railchat.WithLogger(a.Logger),
		railchat.WithLifecycleHooks(hooks),
		railchat.WithStations(stations),
		railchat.WithFares(nationalrail.New(fareOpts...)),
		railchat.WithDelays(delay.NewPredictor(network, delay.WithLogger(a.Logger))),
		railchat.WithHelp(help),
		railchat.WithMaxFirings(cfg.Engine.MaxFirings),
	)
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}

	opts := []session.Option{session.WithLogger(a.Logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	a.Sessions = session.NewManager(store, a.Engine, opts...)
	a.Extractor = extract.New(stations, extract.WithLogger(a.Logger))
	return nil
}

// Close releases the station database and store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStations(cfg config.StationsConfig) (extract.Directory, error) {
	if cfg.DB == "" {
		return memory.NewDirectory(memory.SampleStations...), nil
	}
	dir, err := sqlite.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening station database: %w", err)
	}
	a.closers = append(a.closers, dir.Close)
	return dir, nil
}

func (a *App) openStore(ctx context.Context, cfg config.StoreConfig) (ports.SessionStore, ports.DistributedLocker, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return file.New(cfg.Dir), nil, nil
	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		if !cfg.Redis.Lock {
			return store, nil, nil
		}
		return store, redis.NewLocker(store.Client(), store.Prefix()), nil
	default:
		return memory.NewStore(), nil, nil
	}
}

// sealStore wraps store with encryption when a key is configured.
func sealStore(store ports.SessionStore, cfg config.StoreConfig) (ports.SessionStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	enc := middleware.EncryptionConfig{}
	var err error
	if enc.ActiveKey, err = middleware.ParseKey(cfg.EncryptionKey); err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

func openHelp(ctx context.Context, cfg config.HelpConfig) (ports.HelpSource, error) {
	if cfg.Dir == "" {
		return memory.NewHelp(memory.DefaultHelp), nil
	}
	help, err := loam.Open(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening help topics: %w", err)
	}
	if _, err := help.Topics(ctx); err != nil {
		return nil, fmt.Errorf("reading help topics: %w", err)
	}
	return help, nil
}

func openNetwork(cfg config.DelayConfig) (*delay.Network, error) {
	if cfg.Network == "" {
		return delay.GreaterAnglia(), nil
	}
	network, err := delay.LoadFile(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("loading rail network: %w", err)
	}
	return network, nil
}
