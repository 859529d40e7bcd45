package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"splinemi/internal"
	"splinemi/internal/config"
	"splinemi/internal/experiment"
)

func newExperimentCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var flags estimatorFlags
	var runCfg experiment.Config
	var outDir string
	var scenarios []string
	var histogramBins int

	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run repeated synthetic trials and report the MI distribution per scenario",
		Long: `Draw synthetic pairs (independent, shifted, wide, bimodal, correlated),
estimate MI for each trial and write a summary table, histograms and a report.

Example: splinemi experiment --trials 100 --samples 1000 --scenario same --scenario correlated`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := flags.selected(logger)
			if err != nil {
				return err
			}
			selected, err := experiment.SelectScenarios(experiment.DefaultScenarios(), scenarios)
			if err != nil {
				return err
			}

			report, err := experiment.NewRunner(est, runCfg, logger).Run(cmd.Context(), selected)
			if err != nil {
				return err
			}
			experiment.WriteTable(cmd.OutOrStdout(), report)

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			return writeArtifacts(outDir, report, histogramBins, logger)
		},
	}

	flags.register(cmd, cfg.Estimator)
	cmd.Flags().IntVar(&runCfg.Trials, "trials", cfg.Experiment.Trials, "Trials per scenario")
	cmd.Flags().IntVar(&runCfg.Samples, "samples", cfg.Experiment.Samples, "Samples per trial")
	cmd.Flags().Uint64Var(&runCfg.Seed, "seed", cfg.Experiment.Seed, "Random seed for deterministic trials")
	cmd.Flags().IntVar(&runCfg.Concurrency, "concurrency", cfg.Experiment.Concurrency, "Trials run at once")
	cmd.Flags().StringVar(&outDir, "out", cfg.Experiment.OutputDir, "Directory for histograms.html and report files")
	cmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "Scenario names to run (default all)")
	cmd.Flags().IntVar(&histogramBins, "histogram-bins", 20, "Bars per histogram")

	return cmd
}

func writeArtifacts(dir string, report *experiment.Report, bins int, logger *internal.Logger) error {
	var charts bytes.Buffer
	if err := experiment.WriteHistograms(&charts, report, bins); err != nil {
		return fmt.Errorf("failed to render histograms: %w", err)
	}
	var md bytes.Buffer
	if err := experiment.WriteMarkdown(&md, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	files := map[string][]byte{
		"histograms.html": charts.Bytes(),
		"report.md":       md.Bytes(),
		"report.html":     experiment.RenderHTML(md.Bytes(), "MI experiment "+report.RunID),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Info("wrote %s", path)
	}
	return nil
}
