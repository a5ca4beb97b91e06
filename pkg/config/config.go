// Package config loads and validates service configuration from defaults,
// an optional TOML file, TIMEBLOCK_* environment variables, and CLI flags,
// in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the scheduling service
type Config struct {
	SolverURL            string        `mapstructure:"solver_url"`
	SolverTimeout        time.Duration `mapstructure:"solver_timeout"`
	SuccessThreshold     float64       `mapstructure:"success_threshold"`
	MaxHorizonExtensions int           `mapstructure:"max_horizon_extensions"`
	Port                 int           `mapstructure:"port"`
	HistoryDB            string        `mapstructure:"history_db"`
	LogLevel             string        `mapstructure:"log_level"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value '%v': %s", e.Field, e.Value, e.Message)
}

// envMappings maps environment variables to config keys
var envMappings = map[string]string{
	"TIMEBLOCK_SOLVER_URL":             "solver_url",
	"TIMEBLOCK_SOLVER_TIMEOUT":         "solver_timeout",
	"TIMEBLOCK_SUCCESS_THRESHOLD":      "success_threshold",
	"TIMEBLOCK_MAX_HORIZON_EXTENSIONS": "max_horizon_extensions",
	"TIMEBLOCK_PORT":                   "port",
	"TIMEBLOCK_HISTORY_DB":             "history_db",
	"TIMEBLOCK_LOG_LEVEL":              "log_level",
}

// Load loads configuration with full precedence support. configFile may be
// empty; flagConfig carries only values explicitly set on the command line.
func Load(configFile string, flagConfig *Config) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("TIMEBLOCK")
	v.AutomaticEnv()
	for envVar, configKey := range envMappings {
		v.BindEnv(configKey, envVar)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if flagConfig != nil {
		config = *config.MergeWithFlags(flagConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults registers the default value of every config key
func setDefaults(v *viper.Viper) {
	v.SetDefault("solver_url", "http://localhost:8000")
	v.SetDefault("solver_timeout", 30*time.Second)
	v.SetDefault("success_threshold", 0.8)
	v.SetDefault("max_horizon_extensions", 3)
	v.SetDefault("port", 8090)
	v.SetDefault("history_db", "")
	v.SetDefault("log_level", "info")
}

// MergeWithFlags merges the base configuration with flag overrides. The
// caller should ensure that only explicitly set flags carry non-zero values.
func (c *Config) MergeWithFlags(flags *Config) *Config {
	result := *c

	if flags.SolverURL != "" {
		result.SolverURL = flags.SolverURL
	}
	if flags.SolverTimeout != 0 {
		result.SolverTimeout = flags.SolverTimeout
	}
	if flags.SuccessThreshold != 0 {
		result.SuccessThreshold = flags.SuccessThreshold
	}
	if flags.MaxHorizonExtensions != 0 {
		result.MaxHorizonExtensions = flags.MaxHorizonExtensions
	}
	if flags.Port != 0 {
		result.Port = flags.Port
	}
	if flags.HistoryDB != "" {
		result.HistoryDB = flags.HistoryDB
	}
	if flags.LogLevel != "" {
		result.LogLevel = flags.LogLevel
	}
	return &result
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errors []ValidationError

	if c.SolverURL == "" {
		errors = append(errors, ValidationError{
			Field:   "solver_url",
			Value:   c.SolverURL,
			Message: "must not be empty",
		})
	} else if !strings.HasPrefix(c.SolverURL, "http://") && !strings.HasPrefix(c.SolverURL, "https://") {
		errors = append(errors, ValidationError{
			Field:   "solver_url",
			Value:   c.SolverURL,
			Message: "must start with http:// or https://",
		})
	}

	if c.SolverTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "solver_timeout",
			Value:   c.SolverTimeout,
			Message: "must be greater than 0",
		})
	}
	if c.SolverTimeout > 10*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "solver_timeout",
			Value:   c.SolverTimeout,
			Message: "must be 10 minutes or less",
		})
	}

	if c.SuccessThreshold <= 0 || c.SuccessThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "success_threshold",
			Value:   c.SuccessThreshold,
			Message: "must be within (0, 1]",
		})
	}

	if c.MaxHorizonExtensions < 0 {
		errors = append(errors, ValidationError{
			Field:   "max_horizon_extensions",
			Value:   c.MaxHorizonExtensions,
			Message: "must be non-negative",
		})
	}
	if c.MaxHorizonExtensions > 30 {
		errors = append(errors, ValidationError{
			Field:   "max_horizon_extensions",
			Value:   c.MaxHorizonExtensions,
			Message: "must be 30 or less to bound solver load",
		})
	}

	if c.Port <= 0 || c.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "port",
			Value:   c.Port,
			Message: "must be a valid TCP port",
		})
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Value:   c.LogLevel,
			Message: "must be one of 'debug', 'info', 'warn', 'error'",
		})
	}

	if len(errors) > 0 {
		var messages []string
		for _, err := range errors {
			messages = append(messages, err.Error())
		}
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(messages, "\n  - "))
	}

	return nil
}
