package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

// LogConfig holds logging output settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// HealthConfig holds relay probing defaults. Servers are tried in order;
// each gets MaxRetries attempts before failover to the next.
type HealthConfig struct {
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	MaxRetries     int      `mapstructure:"max_retries"`
	DefaultServers []string `mapstructure:"default_servers"`
}

// AgentsConfig locates the provider agent binaries.
type AgentsConfig struct {
	Dir string `mapstructure:"dir"`
}

// SweepConfig drives the periodic supervision sweep in server mode.
type SweepConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type AppConfig struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Health HealthConfig `mapstructure:"health"`
	Agents AgentsConfig `mapstructure:"agents"`
	Sweep  SweepConfig  `mapstructure:"sweep"`
}

// LoadConfig reads config.yaml from the working directory or the data dir.
func LoadConfig() (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(DataDir())

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var Config AppConfig

// DataDir is the per-user state directory
// (%USERPROFILE%\.portkeeper on Windows, $HOME/.portkeeper elsewhere).
func DataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".portkeeper")
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:8345"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Health.TimeoutSeconds <= 0 {
		cfg.Health.TimeoutSeconds = 5
	}
	if cfg.Health.MaxRetries <= 0 {
		cfg.Health.MaxRetries = 3
	}
	if len(cfg.Health.DefaultServers) == 0 {
		cfg.Health.DefaultServers = []string{"bore.pub", "bore.digital"}
	}
	if cfg.Agents.Dir == "" {
		cfg.Agents.Dir = filepath.Join(DataDir(), "bin")
	}
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = "@every 1m"
	}
	return cfg
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
	collectConfig(&Config)
}
