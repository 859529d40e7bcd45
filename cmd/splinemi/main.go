package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"splinemi/adapters/stats/binning"
	"splinemi/adapters/stats/bspline"
	"splinemi/domain/mi"
	"splinemi/internal"
	"splinemi/internal/config"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "failed to read .env:", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))

	rootCmd := &cobra.Command{
		Use:           "splinemi",
		Short:         "Mutual information between continuous variables via B-spline soft histograms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEstimateCmd(appConfig, logger),
		newExperimentCmd(appConfig, logger),
		newServeCmd(appConfig, logger),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// estimatorFlags are the estimator options shared by every subcommand
type estimatorFlags struct {
	method  string
	nbins   int
	order   int
	workers int

	maxNBins      int
	maxTableCells int
}

func (f *estimatorFlags) register(cmd *cobra.Command, cfg config.EstimatorConfig) {
	cmd.Flags().StringVar(&f.method, "method", cfg.Method, "Estimator: bspline or binning")
	cmd.Flags().IntVar(&f.nbins, "nbins", cfg.NBins, "Number of B-spline bins")
	cmd.Flags().IntVar(&f.order, "order", cfg.Order, "B-spline order (1 is hard binning)")
	cmd.Flags().IntVar(&f.workers, "workers", cfg.Workers, "Row workers per table (0 = GOMAXPROCS)")
	f.maxNBins = cfg.MaxNBins
	f.maxTableCells = cfg.MaxTableCells
}

// registry builds every estimator, with bspline using the flag values
func (f *estimatorFlags) registry(logger *internal.Logger) map[string]mi.Estimator {
	est := bspline.NewEstimator(f.nbins, f.order)
	est.Workers = f.workers
	est.Logger = logger.WithField("estimator", bspline.Name)
	if f.maxNBins > 0 {
		est.MaxNBins = f.maxNBins
	}
	hard := binning.NewEstimator()
	if f.maxTableCells > 0 {
		est.MaxTableCells = f.maxTableCells
		hard.MaxTableCells = f.maxTableCells
	}
	return map[string]mi.Estimator{
		bspline.Name: est,
		binning.Name: hard,
	}
}

func (f *estimatorFlags) selected(logger *internal.Logger) (mi.Estimator, error) {
	est, ok := f.registry(logger)[f.method]
	if !ok {
		return nil, fmt.Errorf("unknown method %q (use %s or %s)", f.method, bspline.Name, binning.Name)
	}
	return est, nil
}
