package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rendis/algoscope/internal/api"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the catalog and prediction API under /api.

SIGINT or SIGTERM shuts the server down gracefully. SIGHUP re-reads settings.yaml
and the catalog source and swaps in the new catalog without dropping connections.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "TCP listen address (default :5000, or :$PORT)")
	serveCmd.Flags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	serveCmd.Flags().StringSliceVar(&corsOrigins, "cors-origins", nil, "allowed CORS origins")
}

func newRouter(eng *engine.Engine, c Config) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	return api.NewRouter(eng, api.RouterConfig{CORSOrigins: c.CORSOrigins, Logger: logger})
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	swapper := newHandlerSwapper(newRouter(eng, cfg))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           swapper,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := writePIDFile(); err != nil {
		logger.Warn("pid file not written", slog.String("error", err.Error()))
	} else {
		defer os.Remove(pidPath())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.ListenAddr), slog.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	r := &reloader{
		current: cfg,
		load:    func() (Config, error) { return resolveConfig(cmd) },
		swapper: swapper,
		logger:  logger,
	}
	g.Go(func() error {
		r.watch(gctx)
		return nil
	})
	return g.Wait()
}

// reloader owns the running configuration of a serve process. Only the
// goroutine running watch touches current.
type reloader struct {
	current Config
	load    func() (Config, error)
	swapper *handlerSwapper
	logger  *slog.Logger
}

// watch rebuilds the engine on SIGHUP until ctx is done. A failed reload keeps
// the previous catalog.
func (r *reloader) watch(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := r.reload(ctx); err != nil {
				r.logger.Error("reload failed, keeping current catalog", slog.String("error", err.Error()))
			}
		}
	}
}

func (r *reloader) reload(ctx context.Context) error {
	next, err := r.load()
	if err != nil {
		return err
	}

	diff := diffConfigs(r.current, next)
	for _, field := range diff.RestartNeeded {
		r.logger.Warn("setting changed, restart to apply", slog.String("field", field))
	}

	eng, err := buildEngine(ctx, next, r.logger)
	if err != nil {
		return err
	}
	if diff.LogLevelChanged {
		logLevel.Set(logging.ParseLevel(next.LogLevel))
	}
	r.swapper.Swap(newRouter(eng, next))

	// Restart-only fields keep their running values.
	next.ListenAddr, next.BaseURL, next.LogFormat = r.current.ListenAddr, r.current.BaseURL, r.current.LogFormat
	r.current = next
	r.logger.Info("reloaded", slog.Bool("config_changed", diff.Reloadable()))
	return nil
}

func writePIDFile() error {
	if err := os.MkdirAll(algoscopeDir(), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pidPath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}
