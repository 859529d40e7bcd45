package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"splinemi/adapters/excel"
	"splinemi/domain/mi"
	"splinemi/internal"
	"splinemi/internal/config"
)

func newEstimateCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var flags estimatorFlags
	var file, xCol, yCol string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate MI between two columns of a CSV or XLSX file",
		Long: `Estimate the mutual information (bits) between two numeric columns.

Example: splinemi estimate --file samples.csv --x height --y weight --nbins 10 --order 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := flags.selected(logger)
			if err != nil {
				return err
			}
			cols, err := excel.NewDataReader(file).WithLogger(logger).ReadColumns(xCol, yCol)
			if err != nil {
				return err
			}

			result := mi.Result{Method: est.Name(), Samples: len(cols.X)}
			if analyzer, ok := est.(mi.Analyzer); ok {
				result, err = analyzer.Analyze(cmd.Context(), cols.X, cols.Y)
			} else {
				result.MI, err = est.Estimate(cmd.Context(), cols.X, cols.Y)
			}
			if err != nil {
				return fmt.Errorf("estimate %s/%s: %w", xCol, yCol, err)
			}

			tbl := tablewriter.NewWriter(cmd.OutOrStdout())
			tbl.SetHeader([]string{"Method", "Samples", "Skipped", "H(" + xCol + ")", "H(" + yCol + ")", "MI"})
			tbl.Append([]string{
				result.Method,
				fmt.Sprint(result.Samples),
				fmt.Sprint(cols.Skipped),
				fmt.Sprintf("%.4f", result.EntropyX),
				fmt.Sprintf("%.4f", result.EntropyY),
				fmt.Sprintf("%.4f", result.MI),
			})
			tbl.Render()
			return nil
		},
	}

	flags.register(cmd, cfg.Estimator)
	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX file with a header row")
	cmd.Flags().StringVar(&xCol, "x", "", "Header of the first variable")
	cmd.Flags().StringVar(&yCol, "y", "", "Header of the second variable")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")

	return cmd
}
