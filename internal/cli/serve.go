package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/roach88/catalog/internal/api"
	"github.com/roach88/catalog/internal/assemble"
	"github.com/roach88/catalog/internal/config"
	"github.com/roach88/catalog/internal/cursor"
	"github.com/roach88/catalog/internal/logging"
	"github.com/roach88/catalog/internal/paging"
	"github.com/roach88/catalog/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		Long: `Serve the catalog HTTP API until SIGINT or SIGTERM.

Requires a cursor key (cursor.key or CATALOG_CURSOR_KEY) and the site
domains used to build public URLs. In-flight requests get
server.shutdown_timeout to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return withExit(ExitCommandError, err)
			}
			log, err := newLogger(rootOpts, cfg)
			if err != nil {
				return withExit(ExitCommandError, err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := Serve(ctx, cfg, log, nil); err != nil {
				log.Errorw("server stopped", "error", err)
				return withExit(ExitFailure, err)
			}
			return nil
		},
	}
}

func newLogger(opts *RootOptions, cfg *config.Config) (*zap.SugaredLogger, error) {
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	return logging.New(logging.Options{JSON: cfg.Log.JSON, Level: level})
}

// Serve runs the API until ctx is done, then shuts down gracefully.
// ready, if not nil, is called with the bound address once the listener
// is open.
func Serve(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, ready func(addr net.Addr)) error {
	key, err := cfg.CursorKey()
	if err != nil {
		return err
	}

	st, err := store.OpenWithOptions(cfg.Database.Path, store.Options{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return errors.Wrapf(err, "open %s", cfg.Database.Path)
	}
	defer st.Close()

	svc := paging.NewService(st, cursor.NewCodec(key), assemble.New(assemble.Options{
		SiteDomain:  cfg.Site.Domain,
		FilesDomain: cfg.Site.FilesDomain,
	}))

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler: api.NewRouter(svc, api.Options{
			Logger:    log,
			RateLimit: rate.Limit(cfg.RateLimit.RPS),
			Burst:     cfg.RateLimit.Burst,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.Server.Addr)
	}
	log.Infow("serving catalog",
		"addr", ln.Addr().String(),
		"database", cfg.Database.Path,
		"cursor_algorithm", key.Algorithm(),
	)
	if ready != nil {
		ready(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down", "timeout", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}
