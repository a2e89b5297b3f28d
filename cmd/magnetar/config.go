// Config loading for the magnetar command: defaults, then magnetar.yaml,
// then MAGNETAR_* environment variables, then flags.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "magnetar"
	configFileType = "yaml"
	envPrefix      = "MAGNETAR"

	cfgKeyDBPath          = "db_path"
	cfgKeyAPIPort         = "api_port"
	cfgKeyAdminKey        = "admin_key"
	cfgKeyFPS             = "fps"
	cfgKeySpeed           = "speed"
	cfgKeyAutosaveSeconds = "autosave_seconds"
	cfgKeyScenario        = "scenario"
	cfgKeyCells           = "cells"
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFormat       = "log_format"
)

// config is the resolved run configuration.
type config struct {
	DBPath          string
	APIPort         int
	AdminKey        string
	FPS             int
	Speed           float64
	AutosaveSeconds int
	Scenario        string
	Cells           int
	LogLevel        string
	LogFormat       string
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"db-path":          cfgKeyDBPath,
	"api-port":         cfgKeyAPIPort,
	"admin-key":        cfgKeyAdminKey,
	"fps":              cfgKeyFPS,
	"speed":            cfgKeySpeed,
	"autosave-seconds": cfgKeyAutosaveSeconds,
	"scenario":         cfgKeyScenario,
	"cells":            cfgKeyCells,
	"log-level":        cfgKeyLogLevel,
	"log-format":       cfgKeyLogFormat,
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db-path", "data/magnetar.db", "SQLite database path")
	f.Int("api-port", 8080, "HTTP API port, 0 disables the API")
	f.String("admin-key", "", "Bearer token for admin endpoints")
	f.Int("fps", 60, "Target frames per second")
	f.Float64("speed", 1, "Time multiplier, 0 pauses")
	f.Int("autosave-seconds", 30, "Session seconds between saves, 0 disables autosave")
	f.String("scenario", "", "Scenario YAML to replay")
	f.Int("cells", 3, "Cells in a fresh stack")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "text", "Log format: text or json")
}

// loadConfig resolves the configuration for cmd.
func loadConfig(cmd *cobra.Command) (config, error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	configDir, _ := cmd.Flags().GetString("config-dir")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config{
		DBPath:          v.GetString(cfgKeyDBPath),
		APIPort:         v.GetInt(cfgKeyAPIPort),
		AdminKey:        v.GetString(cfgKeyAdminKey),
		FPS:             v.GetInt(cfgKeyFPS),
		Speed:           v.GetFloat64(cfgKeySpeed),
		AutosaveSeconds: v.GetInt(cfgKeyAutosaveSeconds),
		Scenario:        v.GetString(cfgKeyScenario),
		Cells:           v.GetInt(cfgKeyCells),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		LogFormat:       v.GetString(cfgKeyLogFormat),
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	case c.Speed < 0:
		return fmt.Errorf("speed must not be negative, got %v", c.Speed)
	case c.Cells < 0:
		return fmt.Errorf("cells must not be negative, got %d", c.Cells)
	case c.AutosaveSeconds < 0:
		return fmt.Errorf("autosave_seconds must not be negative, got %d", c.AutosaveSeconds)
	case c.APIPort < 0 || c.APIPort > 65535:
		return fmt.Errorf("api_port out of range: %d", c.APIPort)
	case c.DBPath == "":
		return fmt.Errorf("db_path must be set")
	}
	return nil
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("log_format: unknown format %q", format)
}
