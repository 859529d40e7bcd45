package config

import (
	"os"
	"strconv"

	"splinemi/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Estimator  EstimatorConfig
	Server     ServerConfig
	Experiment ExperimentConfig
	LogLevel   string
}

// EstimatorConfig holds the default estimator and its parameters
type EstimatorConfig struct {
	Method        string
	NBins         int
	Order         int
	Workers       int // 0 means GOMAXPROCS
	MaxNBins      int
	MaxTableCells int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ExperimentConfig holds settings for the synthetic experiment driver
type ExperimentConfig struct {
	Trials      int
	Samples     int
	Seed        uint64
	Concurrency int
	OutputDir   string
}

// Known estimator methods
const (
	MethodBSpline = "bspline"
	MethodBinning = "binning"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Estimator:  *loadEstimatorConfig(),
		Server:     *loadServerConfig(),
		Experiment: *loadExperimentConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadEstimatorConfig() *EstimatorConfig {
	return &EstimatorConfig{
		Method:  getEnvOrDefault("MI_METHOD", MethodBSpline),
		NBins:   getEnvIntOrDefault("MI_NBINS", 10),
		Order:   getEnvIntOrDefault("MI_ORDER", 3),
		Workers: getEnvIntOrDefault("MI_WORKERS", 0),

		MaxNBins:      getEnvIntOrDefault("MI_MAX_NBINS", 4096),
		MaxTableCells: getEnvIntOrDefault("MI_MAX_TABLE_CELLS", 1<<25),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Trials:      getEnvIntOrDefault("EXPERIMENT_TRIALS", 100),
		Samples:     getEnvIntOrDefault("EXPERIMENT_SAMPLES", 1000),
		Seed:        getEnvUintOrDefault("EXPERIMENT_SEED", 42),
		Concurrency: getEnvIntOrDefault("EXPERIMENT_CONCURRENCY", 4),
		OutputDir:   getEnvOrDefault("EXPERIMENT_OUTPUT_DIR", "./out"),
	}
}

func validateConfig(config *Config) error {
	switch config.Estimator.Method {
	case MethodBSpline, MethodBinning:
	default:
		return errors.ConfigInvalid("MI_METHOD must be bspline or binning, got " + config.Estimator.Method)
	}
	if config.Estimator.Order < 1 {
		return errors.ConfigInvalid("MI_ORDER must be at least 1")
	}
	if config.Estimator.NBins < config.Estimator.Order {
		return errors.ConfigInvalid("MI_NBINS must be at least MI_ORDER")
	}
	if config.Estimator.MaxNBins < config.Estimator.NBins {
		return errors.ConfigInvalid("MI_MAX_NBINS must be at least MI_NBINS")
	}
	if config.Estimator.MaxTableCells < 1 {
		return errors.ConfigInvalid("MI_MAX_TABLE_CELLS must be positive")
	}
	if config.Estimator.Workers < 0 {
		return errors.ConfigInvalid("MI_WORKERS must not be negative")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Experiment.Trials < 1 || config.Experiment.Samples < 2 {
		return errors.ConfigInvalid("EXPERIMENT_TRIALS must be >= 1 and EXPERIMENT_SAMPLES >= 2")
	}
	if config.Experiment.Concurrency < 1 {
		return errors.ConfigInvalid("EXPERIMENT_CONCURRENCY must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUintOrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}
