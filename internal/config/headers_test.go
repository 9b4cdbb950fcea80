package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/spf13/afero"
)

func TestHeaderConfigLoader_LoadConfig(t *testing.T) {
	t.Run("首次运行自动生成配置文件", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		configPath := "/configs/headers.yaml"
		loader := NewHeaderConfigLoader(fs, configPath)

		cfg, err := loader.LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		data, err := afero.ReadFile(fs, configPath)
		if err != nil {
			t.Fatalf("配置文件应该被自动生成: %v", err)
		}
		if string(data) != DefaultHeaderTemplate() {
			t.Error("生成的配置文件应与模板一致")
		}

		if cfg.Headers == nil || len(cfg.Headers) != 0 {
			t.Errorf("模板生成的Headers应为空map, 得到: %v", cfg.Headers)
		}
	})

	t.Run("加载已存在的配置文件", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testConfig := `headers:
  User-Agent: "Test Bot/1.0"
  X-Custom: "test value"
`
		if err := afero.WriteFile(fs, "/headers.yaml", []byte(testConfig), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}

		cfg, err := NewHeaderConfigLoader(fs, "/headers.yaml").LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		// viper会将键名转换为小写
		if cfg.Headers["user-agent"] != "Test Bot/1.0" {
			t.Errorf("期望 user-agent='Test Bot/1.0', 实际='%s'", cfg.Headers["user-agent"])
		}
		if cfg.Headers["x-custom"] != "test value" {
			t.Errorf("期望 x-custom='test value', 实际='%s'", cfg.Headers["x-custom"])
		}
	})

	t.Run("YAML格式错误返回错误", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		badConfig := `headers:
  User-Agent: "Test Bot
  X-Custom: missing quote
`
		_ = afero.WriteFile(fs, "/headers.yaml", []byte(badConfig), 0644)

		_, err := NewHeaderConfigLoader(fs, "/headers.yaml").LoadConfig()
		var cfgErr *models.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("期望ConfigError, 得到: %v", err)
		}
	})

	t.Run("空配置文件处理", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_ = afero.WriteFile(fs, "/headers.yaml", []byte(`headers:`), 0644)

		cfg, err := NewHeaderConfigLoader(fs, "/headers.yaml").LoadConfig()
		if err != nil {
			t.Fatalf("加载空配置失败: %v", err)
		}
		if cfg.Headers == nil {
			t.Fatal("Headers map应该被初始化为空map")
		}
	})

	t.Run("配置文件大小验证", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		huge := strings.Repeat("#", MaxConfigFileSize+1)
		_ = afero.WriteFile(fs, "/headers.yaml", []byte(huge), 0644)

		loader := NewHeaderConfigLoader(fs, "/headers.yaml")
		if err := loader.ValidateFileSize(); err == nil {
			t.Fatal("期望超大配置文件被拒绝")
		}
		if _, err := loader.LoadConfig(); err == nil {
			t.Fatal("期望超大配置文件被拒绝,但成功了")
		}
	})
}

func TestHeaderConfigLoader_OsFs(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "headers.yaml")
	loader := NewHeaderConfigLoader(nil, configPath)

	if loader.ConfigPath() != configPath {
		t.Errorf("ConfigPath() = %s", loader.ConfigPath())
	}
	if err := loader.EnsureConfigExists(); err != nil {
		t.Fatalf("应该自动创建配置文件, 得到错误: %v", err)
	}
	if ok, _ := afero.Exists(afero.NewOsFs(), configPath); !ok {
		t.Error("配置文件未创建")
	}
}

func TestNewHeaderConfigLoader_DefaultPath(t *testing.T) {
	if got := NewHeaderConfigLoader(afero.NewMemMapFs(), "").ConfigPath(); got != DefaultConfigFile {
		t.Errorf("ConfigPath() = %s, want %s", got, DefaultConfigFile)
	}
}
