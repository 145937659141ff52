// Package app wires a configuration into a running log engine: it builds
// the backends, registers the configured logs and owns their resources.
package app

import (
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/mash-protocol/devlog/internal/config"
	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/log/cbmem"
	"github.com/mash-protocol/devlog/pkg/log/console"
	"github.com/mash-protocol/devlog/pkg/log/file"
	"github.com/mash-protocol/devlog/pkg/log/flash"
	"github.com/mash-protocol/devlog/pkg/log/redisstream"
	"github.com/mash-protocol/devlog/pkg/metrics"
)

// App is a configured engine and the backends it owns.
type App struct {
	Config *config.Config
	Engine *log.Engine

	// Metrics is the registry of the metrics observer; nil when the
	// metrics feature is disabled.
	Metrics *prometheus.Registry

	logger  *slog.Logger
	store   *flash.Store
	files   map[string]*file.Handler
	redis   redis.UniversalClient
	closers []func() error
}

// New builds the backends described by cfg and registers every log.
// On error, resources opened so far are released.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{
		Config: cfg,
		logger: logger,
		files:  make(map[string]*file.Handler),
	}

	opts := log.DefaultOptions()
	opts.MaxEntryLen = cfg.MaxEntryLen
	opts.Logger = logger
	if cfg.Features.Metrics {
		a.Metrics = prometheus.NewRegistry()
		opts.Observer = metrics.New(a.Metrics)
	}
	a.Engine = log.New(opts)

	for _, lc := range cfg.Logs {
		h, err := a.handler(lc.Backend)
		if err != nil {
			_ = a.Close()
			return nil, errors.Wrapf(err, "log %q", lc.Name)
		}
		a.Engine.Register(nil, lc.Name, h, lc.Backend.Type, lc.ParsedLevel())
	}
	return a, nil
}

// handler returns the backend of one log, sharing the flash store, the
// redis client and file handlers with the same path.
func (a *App) handler(b config.BackendConfig) (log.Handler, error) {
	switch b.Type {
	case config.BackendCBMem:
		return cbmem.New(b.Capacity), nil

	case config.BackendConsole:
		return console.New(a.logger, console.Options{Rate: b.Rate, Burst: b.Burst}), nil

	case config.BackendFile:
		path := filepath.Clean(b.Path)
		if h, ok := a.files[path]; ok {
			return h, nil
		}
		h, err := file.Open(path)
		if err != nil {
			return nil, err
		}
		a.files[path] = h
		a.closers = append(a.closers, h.Close)
		return h, nil

	case config.BackendFlash:
		if a.store == nil {
			s, err := flash.Open(flash.Options{
				DataDir:    a.Config.Flash.Dir,
				Fsync:      fsyncMode(a.Config.Flash.Fsync),
				MaxEntries: a.Config.Flash.MaxEntries,
				Logger:     a.logger,
			})
			if err != nil {
				return nil, err
			}
			a.store = s
			a.closers = append(a.closers, s.Close)
			a.logger.Debug("flash store opened",
				slog.String("dir", a.Config.Flash.Dir),
				slog.String("store_id", s.StoreID().String()))
		}
		return a.store, nil

	case config.BackendRedis:
		if a.redis == nil {
			a.redis = redis.NewClient(&redis.Options{
				Addr:     a.Config.Redis.Addr,
				Password: a.Config.Redis.Password,
				DB:       a.Config.Redis.DB,
			})
			a.closers = append(a.closers, a.redis.Close)
		}
		return redisstream.New(a.redis, redisstream.Options{
			Prefix:    a.Config.Redis.Prefix,
			MaxLen:    b.MaxLen,
			OpTimeout: a.Config.Redis.OpTimeout,
		}), nil

	case config.BackendMulti:
		children := make([]log.Handler, 0, len(b.Children))
		for i, cb := range b.Children {
			h, err := a.handler(cb)
			if err != nil {
				return nil, errors.Wrapf(err, "children[%d]", i)
			}
			children = append(children, h)
		}
		return log.NewMultiHandler(children...), nil

	default:
		return nil, errors.Newf("unknown backend type %q", b.Type)
	}
}

func fsyncMode(s string) flash.FsyncMode {
	switch s {
	case "always":
		return flash.FsyncModeAlways
	case "never":
		return flash.FsyncModeNever
	default:
		return flash.FsyncModeInterval
	}
}

// Find returns the registered log with the given name.
func (a *App) Find(name string) (*log.Instance, error) {
	inst := a.Engine.Registry().Find(name)
	if inst == nil {
		return nil, errors.Newf("unknown log %q", name)
	}
	return inst, nil
}

// Close releases backend resources in reverse order of acquisition.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.CombineErrors(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
