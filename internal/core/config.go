package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Output  OutputConfig       `mapstructure:"output"`
	Headers HeadersConfig      `mapstructure:"headers"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
	Reports bool   `mapstructure:"reports"` // 是否生成JSON报告
}

// HeadersConfig HTTP头部配置文件位置
type HeadersConfig struct {
	File string `mapstructure:"file"`
}

// LoadConfig 加载配置文件
// configPath为空时依次搜索 ./configs, ., ~/.webmirror 下的 config.yaml,
// 找不到配置文件时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".webmirror"))
		}
	}

	setDefaults(v)

	// 环境变量覆盖, 如 WEBMIRROR_CRAWL_CONCURRENCY=4
	v.SetEnvPrefix("webmirror")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	crawl := models.DefaultCrawlConfig()

	// 爬取配置默认值
	v.SetDefault("crawl.concurrency", crawl.Concurrency)
	v.SetDefault("crawl.page_workers", crawl.PageWorkers)
	v.SetDefault("crawl.retries", crawl.Retries)
	v.SetDefault("crawl.backoff_min", crawl.BackoffMin)
	v.SetDefault("crawl.backoff_max", crawl.BackoffMax)
	v.SetDefault("crawl.request_timeout", crawl.RequestTimeout)
	v.SetDefault("crawl.pause_every", crawl.PauseEvery)
	v.SetDefault("crawl.max_depth", crawl.MaxDepth)
	v.SetDefault("crawl.insecure_skip_verify", crawl.InsecureSkipVerify)

	// 日志配置默认值
	logging := utils.DefaultLogConfig()
	v.SetDefault("logging.level", logging.Level)
	v.SetDefault("logging.log_dir", logging.LogDir)
	v.SetDefault("logging.rotation.max_size", logging.MaxSize)
	v.SetDefault("logging.rotation.max_backups", logging.MaxBackups)
	v.SetDefault("logging.rotation.max_age", logging.MaxAge)
	v.SetDefault("logging.rotation.compress", logging.Compress)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.reports", true)

	v.SetDefault("headers.file", "configs/headers.yaml")
}

// GetCrawlConfig 从配置中提取爬取配置
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	return c.Crawl
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// CLIFlags 可覆盖配置文件的命令行参数
// 零值表示未指定
type CLIFlags struct {
	OutputDir   string
	LogLevel    string
	Concurrency int
	Retries     int
	MaxDepth    int
	Timeout     time.Duration
	NoPause     bool
}

// MergeCLIFlags 合并命令行参数到配置, 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(flags CLIFlags) {
	if flags.OutputDir != "" {
		c.Output.BaseDir = flags.OutputDir
	}
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}
	if flags.Concurrency > 0 {
		c.Crawl.Concurrency = flags.Concurrency
	}
	if flags.Retries > 0 {
		c.Crawl.Retries = flags.Retries
	}
	if flags.MaxDepth > 0 {
		c.Crawl.MaxDepth = flags.MaxDepth
	}
	if flags.Timeout > 0 {
		c.Crawl.RequestTimeout = flags.Timeout
	}
	if flags.NoPause {
		c.Crawl.PauseEvery = 0
	}
}
