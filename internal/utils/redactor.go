package utils

import (
	"net/http"
	"slices"
	"strings"
)

// SensitiveKeywords 名称中包含这些关键字的头部会被脱敏
var SensitiveKeywords = []string{
	"authorization",
	"cookie",
	"credential",
	"key",
	"password",
	"secret",
	"session",
	"token",
}

// redactedMark 脱敏占位
const redactedMark = "***"

// HeaderRedactor 日志和控制台输出前隐藏凭据
type HeaderRedactor struct {
	keywords []string
}

// NewHeaderRedactor 创建脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{keywords: SensitiveKeywords}
}

// IsSensitiveHeader 按名称关键字判断
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	return slices.ContainsFunc(hr.keywords, func(k string) bool {
		return strings.Contains(lower, k)
	})
}

// RedactHeaderValue 返回可以输出的头部值
//   - 带认证方案的值 (如 "Bearer xxx") 只保留方案名
//   - 长度超过8的值保留首尾各4个字符
//   - 其余完全隐藏
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}
	if scheme, _, ok := strings.Cut(value, " "); ok && isAuthScheme(scheme) {
		return scheme + " " + redactedMark
	}
	if len(value) > 8 {
		return value[:4] + redactedMark + value[len(value)-4:]
	}
	return redactedMark
}

// Redact 返回脱敏后的头部, 多个值用 ", " 连接
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		redacted := make([]string, len(values))
		for i, v := range values {
			redacted[i] = hr.RedactHeaderValue(name, v)
		}
		result[name] = strings.Join(redacted, ", ")
	}
	return result
}

// RedactToString 按名称排序输出 "Name: value" 列表
func (hr *HeaderRedactor) RedactToString(headers http.Header) string {
	redacted := hr.Redact(headers)
	names := make([]string, 0, len(redacted))
	for name := range redacted {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name + ": " + redacted[name])
	}
	return b.String()
}

// isAuthScheme 常见的Authorization方案名
func isAuthScheme(s string) bool {
	switch strings.ToLower(s) {
	case "basic", "bearer", "digest", "token":
		return true
	}
	return false
}
