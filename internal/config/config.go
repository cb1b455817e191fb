package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
	AniDB    AniDBConfig    `mapstructure:"anidb"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug or release
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type MatcherConfig struct {
	MaxProcessed     int           `mapstructure:"max_processed"`     // 每次批处理的最大发布数
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"` // server 模式下的批处理间隔
}

type AniDBConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Client        string        `mapstructure:"client"`
	ClientVersion int           `mapstructure:"client_version"`
	TitlesURL     string        `mapstructure:"titles_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Proxy         string        `mapstructure:"proxy"`
}

var AppConfig *Config

func LoadConfig(configPath string) error {
	v := viper.New()

	// 默认值
	v.SetDefault("server.port", 8306)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/animatch.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("matcher.max_processed", 100)
	v.SetDefault("matcher.schedule_interval", 30*time.Minute)
	v.SetDefault("anidb.base_url", "http://api.anidb.net:9001")
	v.SetDefault("anidb.client", "animatch")
	v.SetDefault("anidb.client_version", 1)
	v.SetDefault("anidb.titles_url", "http://anidb.net/api/anime-titles.dat.gz")
	v.SetDefault("anidb.timeout", 30*time.Second)
	v.SetDefault("anidb.proxy", "")

	// 配置文件路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	// 环境变量替换 (使用 ANIME_ 前缀)
	// 比如 ANIME_MATCHER_MAX_PROCESSED=250
	v.SetEnvPrefix("ANIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Matcher.MaxProcessed <= 0 {
		cfg.Matcher.MaxProcessed = 100
	}

	AppConfig = cfg
	return nil
}
