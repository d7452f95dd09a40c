package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"auramythos/archive"
	"auramythos/logx"
	"auramythos/server"
	"auramythos/store"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API on SERVER_ADDR (or --addr).

Sessions live in Redis when REDIS_URL is set and in process memory
otherwise. Metrics are served on /metrics, or on METRICS_ADDR when set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if cfg.Env().IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := buildService(cfg.LLM)
	if err != nil {
		return err
	}
	policy, err := defaultPolicy()
	if err != nil {
		return err
	}
	stories, err := archive.New(cfg.Archive.Dir)
	if err != nil {
		return err
	}

	opts := server.Options{
		Service:            svc,
		Archive:            stories,
		Policy:             policy,
		RequestTimeout:     cfg.Server.RequestTimeout,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
		ServeMetrics:       cfg.Server.MetricsAddr == "",
	}
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.Sessions = store.NewRedisStore(rdb, cfg.Session.TTL)
		if cfg.RateLimit.Enabled {
			opts.Limiter = server.NewRedisRateLimiter(rdb)
		}
		logx.Info().Msg("sessions stored in redis")
	} else {
		opts.Sessions = store.NewMemoryStore(cfg.Session.TTL)
		if cfg.RateLimit.Enabled {
			logx.Warn().Msg("rate limiting needs REDIS_URL, continuing without it")
		}
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	servers := []*http.Server{{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serveAll(ctx, servers)
}

// serveAll runs every server until ctx is done or one of them fails, then
// shuts all of them down.
func serveAll(ctx context.Context, servers []*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		hs := hs
		g.Go(func() error {
			logx.Info().Str("addr", hs.Addr).Msg("listening")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logx.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, hs := range servers {
			if err := hs.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
