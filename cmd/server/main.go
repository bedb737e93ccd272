// Package main provides the vertint HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"go.ngs.io/vertint/internal/adapter/store/csv"
	"go.ngs.io/vertint/internal/config"
	httpHandler "go.ngs.io/vertint/internal/http"
	"go.ngs.io/vertint/internal/metrics"
	"go.ngs.io/vertint/internal/usecase"
)

const version = "0.1.0"

func main() {
	if err := newServerCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "vertint-server",
		Short: "Serve model-level to pressure/height-level remapping over HTTP",
		Long: `Serve model-level to pressure/height-level remapping over HTTP.

API ENDPOINTS:
  GET  /health                 Health check
  GET  /metrics                Prometheus metrics
  GET  /v1/operators           List operators
  GET  /v1/levels              List stored level lists
  GET  /v1/levels/default      Built-in levels (?kind=pressure|height)
  POST /v1/remap               Remap a dataset below DATA_DIR

ENVIRONMENT VARIABLES:
` + config.Usage(),
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	if err := config.BindFlags(v, cmd.Flags(), config.KeyConfig, config.KeyLogLevel, config.KeyVerbose, config.KeyPort, config.KeyDataDir); err != nil {
		panic(err)
	}
	return cmd
}

func serve(cfg config.Config) error {
	log := cfg.NewLogger()
	log.Info("Starting vertint server...")
	log.Infof("Port: %s", cfg.Port)
	log.Infof("Data directory: %s", cfg.DataDir)
	if cfg.Extrapolate != "" {
		log.Infof("EXTRAPOLATE: %s", cfg.Extrapolate)
	}

	// Initialize metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(metrics.Namespace, reg)

	// Initialize stores and use case.
	levelStore := csv.NewLevelStore(cfg.DataDir)
	remapUC := usecase.NewRemapUseCase(log, m)

	// Setup router.
	handler := httpHandler.NewHandler(remapUC, levelStore, cfg.DataDir, cfg.Extrapolate, log)
	router := httpHandler.SetupRouter(handler, cfg.CORSOrigins, reg, m)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Infof("Server listening on %s", addr)
	log.Infof("Health check: http://localhost:%s/health", cfg.Port)

	if err := router.Run(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
