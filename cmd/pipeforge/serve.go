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

	"github.com/aretw0/pipeforge"
	api "github.com/aretw0/pipeforge/pkg/adapters/http"
	redisadapter "github.com/aretw0/pipeforge/pkg/adapters/redis"
	"github.com/aretw0/pipeforge/pkg/materialize"
	"github.com/aretw0/pipeforge/pkg/observability"
	"github.com/aretw0/pipeforge/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing server",
	Long: `Serves editing sessions over a JSON API. Every session loads its own copy of
the document. With --redis-addr, sessions are also locked across replicas.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		hooks := observability.Chain(metrics.Hooks(), observability.LogHooks(logger))

		src, done, err := openCatalog()
		if err != nil {
			return err
		}
		defer done()

		opts := []pipeforge.Option{pipeforge.WithLogger(logger), pipeforge.WithLifecycleHooks(hooks)}
		if src != nil {
			m := materialize.New(src,
				materialize.WithLogger(logger),
				materialize.WithCacheTTL(cfg.Orbs.CacheTTL))
			opts = append(opts, pipeforge.WithMaterializer(m))
		}
		open := func(ctx context.Context) (*pipeforge.Workspace, error) {
			return pipeforge.Open(ctx, cfg.Document, opts...)
		}

		managerOpts := []session.Option{session.WithLogger(logger)}
		if rc, ok := src.(*redisadapter.Catalog); ok {
			locker := redisadapter.NewLocker(rc.Client(), cfg.Orbs.RedisPrefix)
			managerOpts = append(managerOpts, session.WithLocker(locker, cfg.Server.LockTTL))
		}

		server := api.NewServer(open,
			api.WithLogger(logger),
			api.WithManager(session.NewManager(managerOpts...)),
			api.WithMetrics(reg))

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server starting", "addr", srv.Addr, "document", cfg.Document)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to close server: %w", err)
				}
			}
			server.Close(ctx)
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config, :8080)")
}
