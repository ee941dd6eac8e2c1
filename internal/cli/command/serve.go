package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/statictls/internal/infra/buildinfo"
	"github.com/yndnr/statictls/internal/infra/confloader"
	"github.com/yndnr/statictls/internal/infra/shutdown"
	"github.com/yndnr/statictls/internal/infra/tlscert"
	"github.com/yndnr/statictls/internal/server/config"
	"github.com/yndnr/statictls/internal/server/fileserver"
	"github.com/yndnr/statictls/internal/server/httpserver"
	"github.com/yndnr/statictls/internal/telemetry/logger"
	"github.com/yndnr/statictls/internal/telemetry/metric"
)

// ServeCommand returns the serve subcommand.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve files over HTTPS (default command)",
		Flags:  serveFlags(),
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	configFile := c.String("config")
	overrides := flagOverrides(c)

	cfg, err := config.Load(configFile, overrides)
	if err != nil {
		return err
	}
	if err := config.Verify(cfg); err != nil {
		return err
	}

	log, err := initLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	sh := shutdown.NewHandler(cfg.Server.ShutdownTimeout)
	ctx, stop := sh.Context(c.Context)
	defer stop()

	sh.OnShutdown(func(context.Context) error {
		log.Info("server stopped")
		return nil
	})

	err = Serve(ctx, cfg, Runtime{
		Stdout:     c.App.Writer,
		Logger:     log,
		ConfigFile: configFile,
		Overrides:  overrides,
	})
	return errors.Join(err, sh.Shutdown())
}

func initLogger(cfg *config.ServerConfig, w io.Writer) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// Runtime carries the process-level dependencies of Serve.
type Runtime struct {
	// Stdout receives the startup banner.
	Stdout io.Writer

	Logger logger.Logger

	// ConfigFile, when set, is watched and log.level is re-applied on change.
	ConfigFile string

	// Overrides are the flag values layered over the file on reload.
	Overrides map[string]any

	// OnReady is called once every listener is bound.
	OnReady func(Listening)
}

// Listening reports the bound addresses.
type Listening struct {
	Addr      net.Addr
	AdminAddr net.Addr
}

// Serve loads the key pair, binds the listeners and serves until ctx is
// cancelled. The pair is loaded before any socket is bound, so a bad
// certificate never leaves a listener behind.
func Serve(ctx context.Context, cfg *config.ServerConfig, rt Runtime) error {
	log := rt.Logger
	if log == nil {
		log = logger.Default()
	}
	if rt.Stdout == nil {
		rt.Stdout = io.Discard
	}

	log.Info("starting statictls-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", rt.ConfigFile,
	)

	reg := metric.NewRegistry()

	source, watcher, err := loadSource(cfg, log, reg)
	if err != nil {
		return err
	}

	for _, w := range tlscert.Validate(source.Leaf(), time.Now(), tlscert.HostOf(cfg.Server.Addr)) {
		log.Warn("certificate check", "warning", w, "cert", cfg.TLS.CertFile)
	}

	if err := reg.Register(metric.NewCollector(source.Leaf)); err != nil {
		return fmt.Errorf("register certificate collector: %w", err)
	}

	minVersion, err := tlscert.ParseMinVersion(cfg.TLS.MinVersion)
	if err != nil {
		return err
	}

	files, err := fileserver.New(cfg.Server.Root,
		fileserver.WithListing(cfg.Server.Listing),
		fileserver.WithHideDotfiles(cfg.Server.HideDotfiles),
		fileserver.WithLogger(log.Slog()),
	)
	if err != nil {
		return err
	}
	log.Info("serving directory",
		"root", files.Root(),
		"listing", cfg.Server.Listing,
		"hide_dotfiles", cfg.Server.HideDotfiles,
	)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Files:     files,
		Logger:    log.Slog(),
		Metrics:   reg,
		RateLimit: cfg.Server.RateLimit,
		AccessLog: cfg.Server.AccessLog,
	})

	srv := httpserver.New(httpserver.Config{
		Addr:              cfg.Server.Addr,
		TLSConfig:         tlscert.ServerConfig(source, minVersion),
		MaxConns:          cfg.Server.MaxConns,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}, router,
		httpserver.WithLogger(log.Slog()),
		httpserver.WithMetrics(reg),
		httpserver.WithErrorLog(logger.StdLogger(log)),
	)

	if err := srv.Listen(); err != nil {
		return err
	}

	var admin *httpserver.Server
	if cfg.Admin.Addr != "" {
		admin = httpserver.New(httpserver.Config{
			Addr:              cfg.Admin.Addr,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		}, httpserver.NewAdminHandler(httpserver.AdminConfig{
			Ready:   srv.Ready,
			Metrics: reg,
			Logger:  log.Slog(),
		}), httpserver.WithLogger(log.Slog()))

		if err := admin.Listen(); err != nil {
			srv.Close()
			return err
		}
	}

	_, port, _ := net.SplitHostPort(srv.Addr().String())
	PrintBanner(rt.Stdout, tlscert.HostOf(cfg.Server.Addr), port)

	if rt.OnReady != nil {
		ready := Listening{Addr: srv.Addr()}
		if admin != nil {
			ready.AdminAddr = admin.Addr()
		}
		rt.OnReady(ready)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gctx)
	})

	if admin != nil {
		g.Go(func() error {
			return admin.Serve(gctx)
		})
	}

	if watcher != nil {
		g.Go(func() error {
			// Keep serving the loaded certificate if watching fails.
			if err := watcher.Start(gctx); err != nil {
				log.Error("certificate watcher stopped", "error", err)
			}
			return nil
		})
	}

	if rt.ConfigFile != "" {
		cw, err := watchConfig(rt.ConfigFile, rt.Overrides, log)
		if err != nil {
			log.Warn("configuration watcher disabled", "error", err)
		} else {
			g.Go(func() error {
				defer cw.Close()
				return cw.Start(gctx)
			})
		}
	}

	return g.Wait()
}

// loadSource returns the certificate source. The watcher is non-nil only
// when hot reload is enabled.
func loadSource(cfg *config.ServerConfig, log logger.Logger, reg *metric.Registry) (tlscert.Source, *tlscert.Watcher, error) {
	if !cfg.TLS.Watch {
		kp, err := tlscert.LoadKeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, nil, err
		}
		return kp, nil, nil
	}

	w, err := tlscert.NewWatcher(cfg.TLS.CertFile, cfg.TLS.KeyFile,
		tlscert.WithLogger(log.Slog()),
		tlscert.WithReloadHook(reg.CertReloaded),
	)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

// watchConfig re-applies log.level when the configuration file changes.
// Other settings need a restart.
func watchConfig(path string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	cw, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := cw.Watch(path); err != nil {
		cw.Close()
		return nil, err
	}

	cw.OnChange(func(string) {
		cfg, err := config.Load(path, overrides)
		if err != nil {
			log.Warn("configuration reload failed", "error", err)
			return
		}
		if !logger.ValidLevel(cfg.Log.Level) {
			log.Warn("configuration reload ignored", "log.level", cfg.Log.Level)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})

	return cw, nil
}
