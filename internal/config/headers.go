// Package config 读取 headers.yaml 请求头部配置
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DefaultConfigFile 默认头部配置文件
const DefaultConfigFile = "configs/headers.yaml"

// MaxConfigFileSize 头部配置文件大小上限
const MaxConfigFileSize = 1 << 20

//go:embed headers_template.yaml
var headerTemplate string

// DefaultHeaderTemplate 首次运行时写入的模板
func DefaultHeaderTemplate() string {
	return headerTemplate
}

// HeaderConfigLoader 读取头部配置文件
type HeaderConfigLoader struct {
	fs   afero.Fs
	path string
}

// NewHeaderConfigLoader fs为nil时使用操作系统文件系统, configPath为空时使用DefaultConfigFile
func NewHeaderConfigLoader(fsys afero.Fs, configPath string) *HeaderConfigLoader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &HeaderConfigLoader{fs: fsys, path: configPath}
}

// ConfigPath 配置文件路径
func (l *HeaderConfigLoader) ConfigPath() string {
	return l.path
}

// EnsureConfigExists 文件不存在时写入模板
func (l *HeaderConfigLoader) EnsureConfigExists() error {
	_, err := l.fs.Stat(l.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("检查头部配置文件失败 [%s]: %w", l.path, err)
	}

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}
	if err := afero.WriteFile(l.fs, l.path, []byte(headerTemplate), 0644); err != nil {
		return fmt.Errorf("写入头部配置模板失败 [%s]: %w", l.path, err)
	}

	utils.Infof("📝 已生成头部配置模板: %s", l.path)
	return nil
}

// ValidateFileSize 拒绝超过MaxConfigFileSize的文件
func (l *HeaderConfigLoader) ValidateFileSize() error {
	info, err := l.fs.Stat(l.path)
	if err != nil {
		return &models.ConfigError{FilePath: l.path, Cause: err}
	}
	if size := info.Size(); size > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: l.path,
			Cause:    fmt.Errorf("文件大小 %d 字节超过上限 %d 字节", size, MaxConfigFileSize),
		}
	}
	return nil
}

// LoadConfig 读取并解析头部配置
// viper会把键名转换为小写, 调用方需要自行规范化头部名称
func (l *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	if err := l.EnsureConfigExists(); err != nil {
		return nil, err
	}
	if err := l.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigFile(l.path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// 没有读权限时退回默认头部
		if errors.Is(err, fs.ErrPermission) {
			utils.Warnf("无权读取 %s, 使用默认头部", l.path)
			return &models.HeaderConfig{Headers: map[string]string{}}, nil
		}
		return nil, &models.ConfigError{FilePath: l.path, Cause: err}
	}

	cfg := &models.HeaderConfig{Headers: map[string]string{}}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &models.ConfigError{FilePath: l.path, Cause: fmt.Errorf("解析headers失败: %w", err)}
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return cfg, nil
}
