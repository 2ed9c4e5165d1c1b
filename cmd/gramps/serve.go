package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/jensneuse/abstractlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/hanpama/gramps/internal/config"
	eventbus "github.com/hanpama/gramps/internal/eventbus"
	logging "github.com/hanpama/gramps/internal/logging"
	otel "github.com/hanpama/gramps/internal/otel"
	server "github.com/hanpama/gramps/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "serve the composed schema over HTTP at /graphql",
		Example: "GRAMPS_DATA_SOURCES=./users,./posts gramps serve --addr :8080",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String(config.KeyAddr, ":8080", "HTTP listen address (GRAMPS_ADDR)")
	flags.Duration(config.KeyTimeout, 10*time.Second, "per-request timeout (GRAMPS_TIMEOUT)")
	flags.Bool(config.KeyPretty, false, "indent JSON responses (GRAMPS_PRETTY)")
	flags.Int(config.KeyQueryCache, server.DefaultQueryCacheSize, "validated query cache size, 0 disables (GRAMPS_QUERY_CACHE)")
	flags.String(config.KeyCORS, "", "comma-separated allowed CORS origins (GRAMPS_CORS)")
	flags.String(config.KeyOTelEndpoint, "", "OTLP collector endpoint (GRAMPS_OTEL_ENDPOINT)")
	flags.String(config.KeyOTelService, "gramps", "OpenTelemetry service name (GRAMPS_OTEL_SERVICE)")
	for _, key := range []string{config.KeyAddr, config.KeyTimeout, config.KeyPretty, config.KeyQueryCache, config.KeyCORS, config.KeyOTelEndpoint, config.KeyOTelService} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, flush, err := logging.New(logging.Options{Level: cfg.LogLevel, Development: !cfg.Production()})
	if err != nil {
		return err
	}
	defer flush()

	bus := eventbus.New()
	shutdownTracing, err := otel.Setup(ctx, cfg.OTelEndpoint, cfg.OTelService, bus)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("gramps: tracing shutdown", log.Error(err))
		}
	}()

	c, err := compose(ctx, cfg, logger, bus)
	if err != nil {
		return err
	}
	opts := []server.Option{
		server.WithTimeout(cfg.Timeout),
		server.WithQueryCache(cfg.QueryCache),
		server.WithBus(bus),
		server.WithCORS(cfg.CORSOrigins...),
	}
	if cfg.Pretty {
		opts = append(opts, server.WithPretty())
	}
	h, err := c.Handler(opts...)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("gramps: listening",
		log.String("addr", cfg.Addr),
		log.Any("mock", cfg.MockData()),
	)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
