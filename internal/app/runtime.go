package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skobkin/msgsync/internal/bus"
	"github.com/skobkin/msgsync/internal/config"
	"github.com/skobkin/msgsync/internal/controller"
	"github.com/skobkin/msgsync/internal/dispatch"
	"github.com/skobkin/msgsync/internal/domain"
	"github.com/skobkin/msgsync/internal/gateway"
	"github.com/skobkin/msgsync/internal/logging"
	"github.com/skobkin/msgsync/internal/metrics"
	"github.com/skobkin/msgsync/internal/persistence"
	"github.com/skobkin/msgsync/internal/platform"
)

// Options tweak runtime bootstrap. The zero value uses the per-user data dir and stderr.
type Options struct {
	DataDir string
	Console io.Writer
}

// Runtime wires the local store, the mirror gateway and the controller client.
type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc
	lock   platform.DataDirLock

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB
	UpstreamDB *sql.DB

	Store    *persistence.Store
	Upstream *persistence.MessageRepo
	Gateway  *gateway.Mirror

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Dispatch *dispatch.Queue
	Client   *controller.Client
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	paths, err := ResolvePaths(opts.DataDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	ordering, err := cfg.Ordering()
	if err != nil {
		return nil, err
	}
	paths = paths.withOverrides(cfg.Storage.DBFile, cfg.Remote.UpstreamDBFile)

	lock, lockErr := platform.LockDataDir(paths.RootDir)
	if lockErr != nil && !errors.Is(lockErr, platform.ErrDataDirLockUnsupported) {
		return nil, lockErr
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		lock:   lock,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager(opts.Console)
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		_ = rt.Close()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting msgsync runtime", "version", BuildVersion(), "build_date", BuildDateYMD(), "data_dir", paths.RootDir)
	if lockErr != nil {
		slog.Warn("data dir is not locked", "error", lockErr)
	}

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.DB = db

	upstreamDB, err := persistence.Open(ctx, paths.UpstreamDBFile)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open upstream: %w", err)
	}
	rt.UpstreamDB = upstreamDB

	rt.Bus = bus.New(logMgr.Logger("bus"))
	rt.Store = persistence.NewStore(persistence.NewMessageRepo(db), rt.Bus, logMgr.Logger("store"))
	rt.Upstream = persistence.NewMessageRepo(upstreamDB)
	rt.Gateway = gateway.NewMirror(rt.Upstream, rt.Store, domain.UserID(cfg.Remote.AuthorID), logMgr.Logger("gateway"))

	rt.Registry = prometheus.NewRegistry()
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newBuildInfoCollector(),
	)
	rt.Metrics = metrics.New(rt.Registry)

	rt.Dispatch = dispatch.NewQueue(logMgr.Logger("dispatch"), 512)
	rt.Dispatch.Start(ctx)

	rt.Client = controller.NewClient(ctx, controller.ClientOptions{
		Gateway:         rt.Gateway,
		Store:           rt.Store,
		Bus:             rt.Bus,
		Executor:        rt.Dispatch,
		Logger:          logMgr.Logger("controller"),
		Metrics:         rt.Metrics,
		RepliesPageSize: cfg.Controller.RepliesPageSize,
		ListOrdering:    ordering,
	})

	return rt, nil
}

// MetricsHandler serves the runtime registry in the prometheus exposition format.
func (r *Runtime) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

// SaveConfig persists cfg and re-applies logging. Controller defaults only
// affect runtimes started afterwards.
func (r *Runtime) SaveConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()
		return err
	}
	r.Config = cfg
	r.mu.Unlock()

	return r.LogManager.Configure(cfg.Logging, r.Paths.LogFile)
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

// ClearDatabase drops every locally cached message. Live controllers are not
// notified, so call it before creating any.
func (r *Runtime) ClearDatabase(ctx context.Context) error {
	if err := persistence.ClearDatabase(ctx, r.DB); err != nil {
		return err
	}
	slog.Info("local message cache cleared")

	return nil
}

// Wait blocks until the dispatch queue has delivered everything queued so far.
func (r *Runtime) Wait(ctx context.Context) error {
	return r.Dispatch.Wait(ctx)
}

func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
	if r.UpstreamDB != nil {
		_ = r.UpstreamDB.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}
	if r.lock != nil {
		if err := r.lock.Release(); err != nil {
			return err
		}
		r.lock = nil
	}

	return nil
}
