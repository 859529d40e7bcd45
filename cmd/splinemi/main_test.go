package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splinemi/adapters/stats/binning"
	"splinemi/adapters/stats/bspline"
	"splinemi/internal"
	"splinemi/internal/config"
	"splinemi/internal/experiment"
)

func testConfig() *config.Config {
	return &config.Config{
		Estimator:  config.EstimatorConfig{Method: config.MethodBSpline, NBins: 10, Order: 3},
		Server:     config.ServerConfig{Port: "0"},
		Experiment: config.ExperimentConfig{Trials: 2, Samples: 200, Seed: 1, Concurrency: 2},
	}
}

func TestEstimatorFlagsSelect(t *testing.T) {
	flags := estimatorFlags{method: binning.Name, nbins: 6, order: 2}
	est, err := flags.selected(internal.Discard())
	require.NoError(t, err)
	assert.Equal(t, binning.Name, est.Name())

	spline := flags.registry(internal.Discard())[bspline.Name].(*bspline.Estimator)
	assert.Equal(t, 6, spline.NBins)
	assert.Equal(t, 2, spline.Order)

	flags.method = "kde"
	_, err = flags.selected(internal.Discard())
	assert.Error(t, err)
}

func TestEstimatorFlagsCarryLimits(t *testing.T) {
	flags := estimatorFlags{method: bspline.Name, nbins: 6, order: 2, maxNBins: 64, maxTableCells: 1000}
	registry := flags.registry(internal.Discard())

	spline := registry[bspline.Name].(*bspline.Estimator)
	assert.Equal(t, 64, spline.MaxNBins)
	assert.Equal(t, 1000, spline.MaxTableCells)
	assert.Equal(t, 1000, registry[binning.Name].(*binning.Estimator).MaxTableCells)

	unset := estimatorFlags{method: bspline.Name, nbins: 6, order: 2}
	spline = unset.registry(internal.Discard())[bspline.Name].(*bspline.Estimator)
	assert.Equal(t, bspline.DefaultMaxNBins, spline.MaxNBins)
}

func TestEstimateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n0,0\n1,1\n2,2\n3,3\n4,4\n5,5\n6,6\n7,7\n8,8\n9,9\n"), 0o644))

	cmd := newEstimateCmd(testConfig(), internal.Discard())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--x", "a", "--y", "b", "--order", "1"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "3.3219")
}

func TestExperimentCommandWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	cmd := newExperimentCmd(testConfig(), internal.Discard())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--out", dir, "--scenario", "same", "--scenario", "correlated"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "correlated")
	for _, name := range []string{"histograms.html", "report.md", "report.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestWriteArtifactsFailsOnMissingDir(t *testing.T) {
	report := &experiment.Report{RunID: "x", Results: []experiment.ScenarioResult{{Name: "same", Group: "g", Values: []float64{0.1}}}}
	err := writeArtifacts(filepath.Join(t.TempDir(), "missing", "dir"), report, 4, internal.Discard())
	assert.Error(t, err)
}
