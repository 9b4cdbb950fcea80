package core

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/RecoveryAshes/webmirror/internal/config"
	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/spf13/afero"
)

// headerLayer 一层头部来源, 后面的层覆盖前面的层
type headerLayer struct {
	source  string
	headers http.Header
}

// HeaderManager 合并 默认 < 配置文件 < 命令行 三层请求头部
// 实现 models.HeaderProvider, 每个会话调用一次GetHeaders
type HeaderManager struct {
	loader    *config.HeaderConfigLoader
	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	mu     sync.Mutex
	layers []headerLayer // 默认, 配置文件(加载后), 命令行
	loaded bool
}

// NewHeaderManager 创建头部管理器
// headersFile为空时使用 configs/headers.yaml, cliHeaders 为 "Name: Value" 形式
func NewHeaderManager(fs afero.Fs, headersFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, fmt.Errorf("解析命令行头部失败: %w", err)
	}

	return &HeaderManager{
		loader:    config.NewHeaderConfigLoader(fs, headersFile),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
		layers: []headerLayer{
			{source: "默认", headers: defaultRequestHeaders()},
			{source: "命令行", headers: cli},
		},
	}, nil
}

// defaultRequestHeaders 内置请求头部
// Accept-Encoding只声明下载时能解码的编码
func defaultRequestHeaders() http.Header {
	return http.Header{
		"User-Agent":      {models.DefaultUserAgent},
		"Accept":          {"*/*"},
		"Accept-Encoding": {"gzip, deflate, br"},
	}
}

// ConfigPath 头部配置文件路径
func (hm *HeaderManager) ConfigPath() string {
	return hm.loader.ConfigPath()
}

// LoadConfig 读取头部配置文件, 文件不存在时生成模板, 只加载一次
func (hm *HeaderManager) LoadConfig() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.loaded {
		return nil
	}

	fileConfig, err := hm.loader.LoadConfig()
	if err != nil {
		return err
	}

	fromFile := make(http.Header, len(fileConfig.Headers))
	for name, value := range fileConfig.Headers {
		fromFile.Set(name, value)
	}

	// 配置文件层插在默认和命令行之间
	hm.layers = []headerLayer{hm.layers[0], {source: "配置文件", headers: fromFile}, hm.layers[len(hm.layers)-1]}
	hm.loaded = true

	if len(fromFile) > 0 {
		utils.Debugf("从 %s 加载了%d个头部: %s", hm.ConfigPath(), len(fromFile), hm.redactor.RedactToString(fromFile))
	}
	return nil
}

// Validate 逐层检查头部, 错误信息带来源
func (hm *HeaderManager) Validate() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	for _, layer := range hm.layers {
		if err := hm.validator.Validate(layer.headers); err != nil {
			return fmt.Errorf("%s头部无效: %w", layer.source, err)
		}
	}
	return nil
}

// GetMergedHeaders 按层合并, 同名头部整体覆盖
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	merged := make(http.Header)
	for _, layer := range hm.layers {
		for name, values := range layer.headers {
			merged[name] = append([]string(nil), values...)
		}
	}
	return merged
}

// GetSafeHeaders 脱敏后的合并头部
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// SafeHeadersString 脱敏后的合并头部, 按名称排序
func (hm *HeaderManager) SafeHeadersString() string {
	return hm.redactor.RedactToString(hm.GetMergedHeaders())
}

// GetHeaders 加载、验证并返回合并后的头部
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, err
	}

	merged := hm.GetMergedHeaders()
	utils.Debugf("请求头部: %s", hm.redactor.RedactToString(merged))
	return merged, nil
}
