package models

import "fmt"

// ErrorKind 错误类别
type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network_error" // 连接失败、非2xx状态码、超时
	ErrorKindIO      ErrorKind = "io_error"      // 目录或文件写入失败
	ErrorKindParse   ErrorKind = "parse_error"   // HTML解析失败
)

// FetchError 单个URL获取失败
type FetchError struct {
	URL      string
	Kind     ErrorKind
	Attempts int
	Err      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	return fmt.Sprintf("获取失败 [%s] (%s, 尝试%d次): %v", e.URL, e.Kind, e.Attempts, e.Err)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ToFailedFileInfo 转换为报告中的失败记录
func (e *FetchError) ToFailedFileInfo() FailedFileInfo {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return FailedFileInfo{
		URL:       e.URL,
		ErrorType: e.Kind,
		ErrorMsg:  msg,
		Retries:   e.Attempts,
	}
}

// StatusError 非2xx响应
type StatusError struct {
	StatusCode int
}

// Error 实现error接口
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ValidationError 头部验证错误
type ValidationError struct {
	Field      string // "name" 或 "value"
	HeaderName string
	Reason     string
	Suggestion string // 修复建议 (可选)
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
