package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/api"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/config"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/database"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/logger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/metrics"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(ServiceName)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Server.Port = port
			}

			log, err := logger.New(logger.LogConfig{
				Level:       cfg.Log.Level,
				Environment: cfg.Server.Env,
				ServiceName: cfg.ServiceName,
			})
			if err != nil {
				return fmt.Errorf("failed to build logger: %v", err)
			}
			defer log.Sync()

			log.Info("starting "+cfg.ServiceName, cfg.LogFields()...)

			db, err := database.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close(db)

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(cfg.Metrics.Prefix, reg)

			l, err := ledger.Open(db, ledger.WithLogger(log), ledger.WithRecorder(m))
			if err != nil {
				return err
			}

			// seed the gauge with the stored balance
			if balance, err := l.GetBalance(cmd.Context()); err == nil {
				m.EscrowBalance.Set(float64(balance))
			}

			server := api.NewServer(l, log, m)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(":" + cfg.Server.Port)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("port", "", "Listen port (overrides SERVER_PORT)")
	return cmd
}
