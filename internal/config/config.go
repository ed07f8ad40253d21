// Package config loads settings from .env, an optional config.yaml and the
// environment. Environment variables win over the config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type RuleConfig struct {
	Bsn        int           `mapstructure:"bsn"`
	Sna        int           `mapstructure:"sna"`
	Author     string        `mapstructure:"author"`
	Interval   time.Duration `mapstructure:"interval"`
	MaxFailure int           `mapstructure:"max_failure"`
}

type Config struct {
	Domain          string        `mapstructure:"domain"`
	Account         string        `mapstructure:"account"`
	Password        string        `mapstructure:"password"`
	DBPath          string        `mapstructure:"db_path"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	UserAgent       string        `mapstructure:"user_agent"`
	LogLevel        string        `mapstructure:"log_level"`
	PrefetchWorkers int           `mapstructure:"prefetch_workers"`
	Rules           []RuleConfig  `mapstructure:"rules"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("domain", "https://forum.gamer.com.tw")
	v.SetDefault("account", "")
	v.SetDefault("password", "")
	v.SetDefault("db_path", "data/baha.db")
	v.SetDefault("request_interval", time.Second)
	v.SetDefault("user_agent", "Mozilla/5.0")
	v.SetDefault("log_level", "info")
	v.SetDefault("prefetch_workers", 4)
	v.SetDefault("rules", []RuleConfig{})
}

// Load reads config.yaml from each of paths, the working directory when none
// is given. A missing .env or config file is not an error.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, skip")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logrus.WithError(err).Error("v.ReadInConfig failed")
			return nil, err
		}
		logrus.Debug("config.yaml not found, use defaults and environment")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		logrus.WithError(err).Error("v.Unmarshal failed")
		return nil, err
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return cfg, nil
}

// ApplyLogLevel sets the logrus level, Load has already validated it.
func (cfg *Config) ApplyLogLevel() {
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
}
