package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"cpseval/domain/scoring"
	"cpseval/internal/analysis"
	"cpseval/internal/errors"
	"cpseval/internal/schema"
	"cpseval/internal/significance"
	"cpseval/internal/tcps"
	"cpseval/internal/weights"
)

// Config represents the complete application configuration
type Config struct {
	Engine    EngineConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Paths     PathConfig
	Profiling ProfilingConfig
}

// EngineConfig holds the scoring and significance tunables
type EngineConfig struct {
	Alpha     float64
	Beta      float64
	Weighting string
	Baseline  string
	Alignment string
	Workers   int
}

// DatabaseConfig holds the optional report store connection. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL            string
	ConnectTimeout time.Duration
	MaxOpenConns   int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// PathConfig holds file system paths
type PathConfig struct {
	SchemaFile string
	DataDir    string
	OutputDir  string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Engine:    *loadEngineConfig(),
		Database:  *loadDatabaseConfig(),
		Server:    *loadServerConfig(),
		Paths:     *loadPathConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		Alpha:     getEnvFloatOrDefault("CPS_ALPHA", tcps.DefaultAlpha),
		Beta:      getEnvFloatOrDefault("CPS_BETA", tcps.DefaultBeta),
		Weighting: getEnvOrDefault("CPS_WEIGHTING", string(weights.ModeFixed)),
		Baseline:  getEnvOrDefault("CPS_BASELINE", "0.01"),
		Alignment: getEnvOrDefault("CPS_ALIGNMENT", string(significance.AlignPrefix)),
		Workers:   getEnvIntOrDefault("CPS_WORKERS", runtime.NumCPU()),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:            getEnvOrDefault("DATABASE_URL", ""),
		ConnectTimeout: getEnvDurationOrDefault("DB_CONNECT_TIMEOUT", 10*time.Second),
		MaxOpenConns:   getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		SchemaFile: getEnvOrDefault("CPS_SCHEMA_FILE", ""),
		DataDir:    getEnvOrDefault("CPS_DATA_DIR", ""),
		OutputDir:  getEnvOrDefault("CPS_OUTPUT_DIR", "."),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	_, err := config.Engine.Options()
	return err
}

// Options converts the engine settings into validated analysis options.
func (c EngineConfig) Options() (analysis.Options, error) {
	baseline, err := scoring.ParseThreshold(c.Baseline)
	if err != nil {
		return analysis.Options{}, errors.ConfigInvalidf("CPS_BASELINE: %v", err)
	}
	mode, err := weights.ParseMode(c.Weighting)
	if err != nil {
		return analysis.Options{}, err
	}
	alignment, err := significance.ParseAlignment(c.Alignment)
	if err != nil {
		return analysis.Options{}, err
	}

	opts := analysis.Options{
		Params:    tcps.Params{Alpha: c.Alpha, Beta: c.Beta},
		Weighting: mode,
		Baseline:  baseline,
		Alignment: alignment,
		Workers:   c.Workers,
	}
	if err := opts.Validate(); err != nil {
		return analysis.Options{}, err
	}
	return opts, nil
}

// LoadSchema returns the schema from SchemaFile, or the built-in schema
// when no file is configured.
func (p PathConfig) LoadSchema() (*schema.Schema, error) {
	if p.SchemaFile == "" {
		return schema.Default(), nil
	}
	return schema.LoadFile(p.SchemaFile)
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
