package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/supplysim-go/internal/adapters/logging"
	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/simulation/commands"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/supplysim-go/internal/infrastructure/database"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		duration time.Duration
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if cmd.Flags().Changed("seed") {
				cfg.World.Seed = seed
			}
			return runSimulation(cmd.Context(), cfg, duration)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 0,
		"Stop after this wall-clock duration (0 = run until interrupted)")
	cmd.Flags().Int64Var(&seed, "seed", 0,
		"World seed to replay (0 = lowest unused seed)")
	return cmd
}

func runSimulation(parent context.Context, cfg *config.Config, duration time.Duration) error {
	logger := logging.New(&cfg.Logging)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open seed store: %w", err)
	}
	defer database.Close(db)
	seedRepo := persistence.NewGormSeedRepository(db)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metrics.SetGlobalCollector(metrics.NewPrometheusCollector(metrics.Registry))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
		go func() {
			if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
				logger.Log("error", "metrics server failed", map[string]interface{}{"error": serveErr.Error()})
			}
		}()
		defer srv.Close()
		logger.Log("info", "metrics endpoint up", map[string]interface{}{"address": cfg.Metrics.Address})
	}

	m := common.NewMediator()
	handler := commands.NewRunSimulationHandler(cfg, seedRepo, logger, shared.NewRealClock())
	if err := common.RegisterHandler[*commands.RunSimulationCommand](m, handler); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp, err := m.Send(ctx, &commands.RunSimulationCommand{Duration: duration})
	if err != nil {
		return err
	}
	result := resp.(*commands.RunSimulationResponse)
	fmt.Printf("Simulation finished: seed=%d events_received=%d events_processed=%d\n",
		result.Seed, result.EventsReceived, result.EventsProcessed)
	return nil
}
