package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pomotrack/internal/logging"
)

const (
	MinDurationMinutes = 1
	minTickMillis      = 10
	maxTickMillis      = 1000
)

type TimerConfig struct {
	FocusMinutes   int `mapstructure:"focus_minutes"`
	BreakMinutes   int `mapstructure:"break_minutes"`
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
}

type ServerConfig struct {
	Port                   int    `mapstructure:"port"`
	DatabasePath           string `mapstructure:"database_path"`
	PidFile                string `mapstructure:"pid_file"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

type ClientConfig struct {
	APIBaseURL            string `mapstructure:"api_base_url"`
	LocalStorePath        string `mapstructure:"local_store_path"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Client ClientConfig   `mapstructure:"client"`
	Timer  TimerConfig    `mapstructure:"timer"`
	Log    logging.Config `mapstructure:"log"`
}

// LoadConfig reads configPath, or searches ./config.yaml, ~/.config/pomotrack and
// /etc/pomotrack when it is empty. Environment variables prefixed with POMOTRACK_
// override file values; PORT is honored for the listening port.
func LoadConfig(configPath string) (*Config, error) {
	log := logging.NewLogger("config")
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pomotrack")
		v.AddConfigPath("/etc/pomotrack/")
	}

	v.SetEnvPrefix("POMOTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "POMOTRACK_SERVER_PORT", "PORT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Debug("Config file not found, using defaults")
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("Configuration file loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.database_path", "pomotrack.db")
	v.SetDefault("server.pid_file", "pomotrack.pid")
	v.SetDefault("server.shutdown_timeout_seconds", 5)
	v.SetDefault("client.api_base_url", "http://localhost:5000/api")
	v.SetDefault("client.local_store_path", defaultLocalStorePath())
	v.SetDefault("client.request_timeout_seconds", 10)
	v.SetDefault("timer.focus_minutes", 25)
	v.SetDefault("timer.break_minutes", 5)
	v.SetDefault("timer.tick_interval_ms", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// normalize clamps out-of-range values instead of rejecting them.
func (c *Config) normalize() {
	log := logging.NewLogger("config")

	c.Timer.FocusMinutes = ClampMinutes(c.Timer.FocusMinutes)
	c.Timer.BreakMinutes = ClampMinutes(c.Timer.BreakMinutes)
	if c.Timer.TickIntervalMs < minTickMillis || c.Timer.TickIntervalMs > maxTickMillis {
		log.Warnf("timer.tick_interval_ms %d out of range, using 100", c.Timer.TickIntervalMs)
		c.Timer.TickIntervalMs = 100
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		log.Warnf("server.port %d invalid, using 5000", c.Server.Port)
		c.Server.Port = 5000
	}
	if c.Server.ShutdownTimeoutSeconds < 1 {
		c.Server.ShutdownTimeoutSeconds = 1
	}
	if c.Client.RequestTimeoutSeconds < 1 {
		c.Client.RequestTimeoutSeconds = 1
	}
	c.Client.APIBaseURL = strings.TrimRight(c.Client.APIBaseURL, "/")
}

// ClampMinutes returns m, or the minimum valid duration when m is not positive.
func ClampMinutes(m int) int {
	if m < MinDurationMinutes {
		logging.NewLogger("config").Warnf("duration %d minutes too low, using %d", m, MinDurationMinutes)
		return MinDurationMinutes
	}
	return m
}

func (t TimerConfig) TickInterval() time.Duration {
	return time.Duration(t.TickIntervalMs) * time.Millisecond
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

func (c ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func defaultLocalStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pomotrack-state.yaml"
	}
	return filepath.Join(dir, "pomotrack", "state.yaml")
}
