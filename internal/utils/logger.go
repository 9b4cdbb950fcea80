package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局日志器, InitLogger之前为空日志器, 不输出任何内容
var Logger zerolog.Logger

// 日志文件名
const (
	MainLogFile  = "web_mirror.log"
	ErrorLogFile = "web_mirror_error.log"
)

// LogConfig 日志配置
type LogConfig struct {
	Level      string    `mapstructure:"level"`       // trace, debug, info, warn, error
	LogDir     string    `mapstructure:"log_dir"`     // 日志目录
	MaxSize    int       `mapstructure:"max_size"`    // 单个文件上限(MB)
	MaxBackups int       `mapstructure:"max_backups"` // 保留的旧文件数
	MaxAge     int       `mapstructure:"max_age"`     // 保留天数
	Compress   bool      `mapstructure:"compress"`    // 压缩旧文件
	Console    io.Writer `mapstructure:"-"`           // 控制台输出, 为nil时使用os.Stdout
}

// DefaultLogConfig 默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		LogDir:     "logs",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// logFiles 当前打开的轮转文件, CloseLogger时关闭
var logFiles []*lumberjack.Logger

// InitLogger 初始化日志系统
// 控制台输出全部级别, web_mirror.log 记录全部级别, web_mirror_error.log 只记录error及以上
func InitLogger(config LogConfig) error {
	level := zerolog.InfoLevel
	if config.Level != "" {
		parsed, err := zerolog.ParseLevel(config.Level)
		if err != nil {
			return fmt.Errorf("无效的日志级别 %q: %w", config.Level, err)
		}
		level = parsed
	}

	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	_ = CloseLogger()
	mainFile := rotatingFile(config, MainLogFile)
	errorFile := rotatingFile(config, ErrorLogFile)
	logFiles = []*lumberjack.Logger{mainFile, errorFile}

	console := config.Console
	if console == nil {
		console = os.Stdout
	}

	writer := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly},
		mainFile,
		&FilteredWriter{Writer: errorFile, MinLevel: zerolog.ErrorLevel},
	)

	zerolog.SetGlobalLevel(level)
	Logger = zerolog.New(writer).With().Timestamp().Logger()
	log.Logger = Logger

	Logger.Debug().
		Str("level", level.String()).
		Str("log_dir", config.LogDir).
		Msg("日志系统初始化完成")
	return nil
}

// CloseLogger 关闭日志文件
func CloseLogger() error {
	var errs []error
	for _, f := range logFiles {
		errs = append(errs, f.Close())
	}
	logFiles = nil
	return errors.Join(errs...)
}

func rotatingFile(config LogConfig, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(config.LogDir, name),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
}

// FilteredWriter 只写入MinLevel及以上级别的日志
type FilteredWriter struct {
	Writer   io.Writer
	MinLevel zerolog.Level
}

// Write 无级别写入, 无法判断级别时丢弃
func (w *FilteredWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel 由zerolog.MultiLevelWriter调用
func (w *FilteredWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.MinLevel {
		return len(p), nil
	}
	return w.Writer.Write(p)
}

func Infof(format string, args ...interface{}) {
	Logger.Info().Msgf(format, args...)
}

func Warn(msg string) {
	Logger.Warn().Msg(msg)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Error().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debug().Msgf(format, args...)
}
