package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/qtable-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Preview and loading
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	Delimiter   string `mapstructure:"delimiter" yaml:"delimiter"`
	SheetName   string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex  int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	MaxRows     int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HTTP API
	ServerAddr              string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerMaxBodyBytes      int64  `mapstructure:"server_max_body_bytes" yaml:"server_max_body_bytes"`
	ServerRequestTimeoutSec int    `mapstructure:"server_request_timeout_sec" yaml:"server_request_timeout_sec"`

	// Interactive shell
	ShellHistoryFile string `mapstructure:"shell_history_file" yaml:"shell_history_file"`
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		PreviewRows:             5,
		SheetIndex:              1,
		LogLevel:                "info",
		LogFormat:               "text",
		ServerAddr:              ":8080",
		ServerMaxBodyBytes:      10 << 20,
		ServerRequestTimeoutSec: 30,
	}
}

// DefaultDir returns ~/.qtable.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".qtable"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.qtable/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Explicit CLI flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("QTABLE")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("server_max_body_bytes", d.ServerMaxBodyBytes)
	v.SetDefault("server_request_timeout_sec", d.ServerRequestTimeoutSec)
	v.SetDefault("shell_history_file", d.ShellHistoryFile)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.PreviewRows < 0 {
		c.PreviewRows = 0
	}
	if c.SheetIndex <= 0 {
		c.SheetIndex = 1
	}
	return &c, nil
}
