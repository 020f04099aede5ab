package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adityakp21/chargegrid/app"
	"github.com/adityakp21/chargegrid/config"
	"github.com/adityakp21/chargegrid/infra/logger"
	"github.com/adityakp21/chargegrid/simulator"
)

var (
	simStations int
	simRate     float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the service with synthetic agent traffic",
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simStations, "stations", 20, "size of the simulated station pool")
	simulateCmd.Flags().Float64Var(&simRate, "rate", 3, "mean events per second")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	sim, err := simulator.New(simulator.Config{
		Stations:      simStations,
		EventsPerTick: simRate,
	}, svc.Bus, logger.New("simulator"))
	if err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	go func() {
		if err := sim.Run(ctx); err != nil {
			logger.New("simulate-command").Errorf("simulator: %v", err)
		}
	}()
	return svc.Run(ctx)
}
