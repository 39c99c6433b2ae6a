// Package config provides Viper-based configuration loading for the arena daemon.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on snapshot persistence.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RegenConfig holds per-second base regeneration for each resource pool.
type RegenConfig struct {
	Health     float64 `mapstructure:"health"`
	Scarlet    float64 `mapstructure:"scarlet"`
	BlockPower float64 `mapstructure:"block_power"`
}

// EngineConfig holds frame driver and simulation settings.
type EngineConfig struct {
	// FrameInterval is the fixed delta the driver advances every actor by.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	// Regen is the base regeneration applied every frame.
	Regen RegenConfig `mapstructure:"regen"`
	// MaxHoTStacks bounds the stack multiplier of a heal-over-time.
	MaxHoTStacks int `mapstructure:"max_hot_stacks"`
	// LuaInstructionLimit caps opcodes per hook call; 0 uses the scripting default.
	LuaInstructionLimit int `mapstructure:"lua_instruction_limit"`
	// DiceSeed makes crit and pulse rolls deterministic when non-zero.
	DiceSeed uint64 `mapstructure:"dice_seed"`
}

// ContentConfig locates the YAML and Lua content loaded at startup.
type ContentConfig struct {
	EffectsDir   string `mapstructure:"effects_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	ScriptsDir   string `mapstructure:"scripts_dir"`
	// Spawn lists template ids instantiated at startup.
	Spawn []string `mapstructure:"spawn"`
}

// InspectConfig holds settings for the gRPC inspection service.
type InspectConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (i InspectConfig) Addr() string {
	return fmt.Sprintf("%s:%d", i.GRPCHost, i.GRPCPort)
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Content  ContentConfig  `mapstructure:"content"`
	Inspect  InspectConfig  `mapstructure:"inspect"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Inspect.Enabled {
		if err := validateInspect(c.Inspect); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.FrameInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.frame_interval must be > 0, got %s", e.FrameInterval))
	}
	if e.Regen.Health < 0 || e.Regen.Scarlet < 0 || e.Regen.BlockPower < 0 {
		errs = append(errs, "engine.regen rates must not be negative")
	}
	if e.MaxHoTStacks < 1 {
		errs = append(errs, fmt.Sprintf("engine.max_hot_stacks must be >= 1, got %d", e.MaxHoTStacks))
	}
	if e.LuaInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("engine.lua_instruction_limit must be >= 0, got %d", e.LuaInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.EffectsDir == "" {
		errs = append(errs, "content.effects_dir must not be empty")
	}
	if c.TemplatesDir == "" {
		errs = append(errs, "content.templates_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateInspect(i InspectConfig) error {
	var errs []string
	if i.GRPCHost == "" {
		errs = append(errs, "inspect.grpc_host must not be empty")
	}
	if i.GRPCPort < 1 || i.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("inspect.grpc_port must be 1-65535, got %d", i.GRPCPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SCARLET_ prefix
	v.SetEnvPrefix("SCARLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance populated only with default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "scarlet")
	v.SetDefault("database.password", "scarlet")
	v.SetDefault("database.name", "scarlet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.frame_interval", "50ms")
	v.SetDefault("engine.regen.health", 0)
	v.SetDefault("engine.regen.scarlet", 2)
	v.SetDefault("engine.regen.block_power", 5)
	v.SetDefault("engine.max_hot_stacks", 3)
	v.SetDefault("engine.lua_instruction_limit", 0)
	v.SetDefault("engine.dice_seed", 0)

	v.SetDefault("content.effects_dir", "content/effects")
	v.SetDefault("content.templates_dir", "content/templates")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("inspect.enabled", true)
	v.SetDefault("inspect.grpc_host", "127.0.0.1")
	v.SetDefault("inspect.grpc_port", 50061)
}
