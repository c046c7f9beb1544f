package config

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. MINIRT_JOIN_LIMIT for join.limit.
const EnvPrefix = "MINIRT"

// MaxDurationMs is the largest millisecond setting that converts to a
// time.Duration without overflowing.
const MaxDurationMs int64 = math.MaxInt64 / int64(time.Millisecond)

// Config holds configuration for the minirt demo commands.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Hello    HelloConfig    `mapstructure:"hello"`
	Sleep    SleepConfig    `mapstructure:"sleep"`
	Join     JoinConfig     `mapstructure:"join"`
	Fanin    FaninConfig    `mapstructure:"fanin"`
}

// LoggingConfig controls the slog logger handed to executors.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// ExecutorConfig names the executor in log records. Empty means a random
// UUID.
type ExecutorConfig struct {
	Name string `mapstructure:"name"`
}

type HelloConfig struct {
	DelayMs int `mapstructure:"delay_ms"`
}

type SleepConfig struct {
	Tasks  int `mapstructure:"tasks"`
	StepMs int `mapstructure:"step_ms"`
}

type JoinConfig struct {
	Tasks   int `mapstructure:"tasks"`
	DelayMs int `mapstructure:"delay_ms"`
	// Limit bounds how many tasks sleep at once; 0 means no limit.
	Limit int `mapstructure:"limit"`
}

type FaninConfig struct {
	Producers int `mapstructure:"producers"`
	Tasks     int `mapstructure:"tasks"`
}

// Delay returns the hello delay as a time.Duration.
func (c *HelloConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Step returns the sleep step as a time.Duration.
func (c *SleepConfig) Step() time.Duration {
	return time.Duration(c.StepMs) * time.Millisecond
}

// Delay returns the join delay as a time.Duration.
func (c *JoinConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Hello: HelloConfig{
			DelayMs: 100,
		},
		Sleep: SleepConfig{
			Tasks:  5,
			StepMs: 20,
		},
		Join: JoinConfig{
			Tasks:   10,
			DelayMs: 50,
		},
		Fanin: FaninConfig{
			Producers: 4,
			Tasks:     100,
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("executor.name", defaults.Executor.Name)

	v.SetDefault("hello.delay_ms", defaults.Hello.DelayMs)

	v.SetDefault("sleep.tasks", defaults.Sleep.Tasks)
	v.SetDefault("sleep.step_ms", defaults.Sleep.StepMs)

	v.SetDefault("join.tasks", defaults.Join.Tasks)
	v.SetDefault("join.delay_ms", defaults.Join.DelayMs)
	v.SetDefault("join.limit", defaults.Join.Limit)

	v.SetDefault("fanin.producers", defaults.Fanin.Producers)
	v.SetDefault("fanin.tasks", defaults.Fanin.Tasks)
}

// NewViper returns a viper instance with defaults registered and
// environment overrides enabled. If path is not empty, it is read as the
// config file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// MINIRT_JOIN_LIMIT for join.limit
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "join.limit")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	nonNegative := func(field string, v int) {
		if v < 0 {
			errors = append(errors, ValidationError{Field: field, Value: v, Message: "must be non-negative"})
		}
	}
	duration := func(field string, v int) {
		nonNegative(field, v)
		if int64(v) > MaxDurationMs {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   v,
				Message: fmt.Sprintf("exceeds maximum of %dms", MaxDurationMs),
			})
		}
	}
	positive := func(field string, v int) {
		if v <= 0 {
			errors = append(errors, ValidationError{Field: field, Value: v, Message: "must be positive"})
		}
	}

	duration("hello.delay_ms", c.Hello.DelayMs)
	nonNegative("sleep.tasks", c.Sleep.Tasks)
	duration("sleep.step_ms", c.Sleep.StepMs)
	if c.Sleep.Tasks > 0 && c.Sleep.StepMs > 0 && int64(c.Sleep.Tasks) > MaxDurationMs/int64(c.Sleep.StepMs) {
		errors = append(errors, ValidationError{
			Field:   "sleep.tasks",
			Value:   c.Sleep.Tasks,
			Message: fmt.Sprintf("times sleep.step_ms exceeds maximum of %dms", MaxDurationMs),
		})
	}
	nonNegative("join.tasks", c.Join.Tasks)
	duration("join.delay_ms", c.Join.DelayMs)
	nonNegative("join.limit", c.Join.Limit)
	positive("fanin.producers", c.Fanin.Producers)
	nonNegative("fanin.tasks", c.Fanin.Tasks)

	return errors
}
