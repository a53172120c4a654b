package config

import (
	"fmt"
	"os/user"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// PostgreSQL specific
	SSLMode string `mapstructure:"ssl_mode"`

	// MongoDB specific
	AuthDatabase string `mapstructure:"auth_database"`
}

type BackupConfig struct {
	Dir         string   `mapstructure:"dir"`
	Databases   []string `mapstructure:"databases"`
	MaxParallel int      `mapstructure:"max_parallel"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

func Load(v *viper.Viper, configFile string) (*Config, error) {
	v.SetDefault("server.type", "postgres")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.ssl_mode", "prefer")
	v.SetDefault("server.auth_database", "admin")
	v.SetDefault("backup.max_parallel", 3)
	v.SetDefault("log.level", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		switch c.Server.Type {
		case "mysql":
			c.Server.Port = 3306
		case "mongodb":
			c.Server.Port = 27017
		default:
			c.Server.Port = 5432
		}
	}

	// MongoDB allows unauthenticated deployments, so an empty user stays empty.
	if c.Server.User == "" && c.Server.Type != "mongodb" {
		if u, err := user.Current(); err == nil {
			c.Server.User = u.Username
		}
	}
}

func (c *Config) Validate() error {
	switch c.Server.Type {
	case "postgres", "mysql", "mongodb":
	default:
		return fmt.Errorf("unsupported server type: %s", c.Server.Type)
	}

	if c.Server.Host == "" {
		return fmt.Errorf("server host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.Backup.Dir == "" {
		return fmt.Errorf("backup directory is required")
	}
	if c.Backup.MaxParallel < 1 {
		return fmt.Errorf("backup.max_parallel must be at least 1, got %d", c.Backup.MaxParallel)
	}

	return nil
}

func (s ServerConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}
