package utils

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"golang.org/x/net/http/httpguts"
)

// MaxHeaderValueLength 单个头部值的最大字节数
const MaxHeaderValueLength = 8 << 10

// clientManagedHeaders 由HTTP客户端维护, 不允许在配置中出现 (规范化名称)
var clientManagedHeaders = []string{
	"Connection",
	"Content-Length",
	"Host",
	"Te",
	"Transfer-Encoding",
	"Upgrade",
}

// decodableEncodings 下载时能够解码的内容编码
var decodableEncodings = []string{"br", "deflate", "gzip", "identity", "x-gzip"}

// HeaderValidator 检查用户配置的请求头部
// 名称和值的合法性按RFC 7230判断, 另外拒绝客户端维护的头部和无法解码的Accept-Encoding
type HeaderValidator struct {
	maxValueLength int
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	return &HeaderValidator{maxValueLength: MaxHeaderValueLength}
}

// IsForbidden 头部是否由客户端维护 (不区分大小写)
func (hv *HeaderValidator) IsForbidden(name string) bool {
	return slices.Contains(clientManagedHeaders, http.CanonicalHeaderKey(name))
}

// ValidateName 检查头部名称是否为合法token
func (hv *HeaderValidator) ValidateName(name string) error {
	switch {
	case name == "":
		return invalidHeader("name", name, "头部名称为空", "")
	case !httpguts.ValidHeaderFieldName(name):
		return invalidHeader("name", name, "头部名称不是合法token",
			"名称只能包含字母、数字和 !#$%&'*+-.^_`|~")
	}
	return nil
}

// ValidateValue 检查头部值的长度和字符
func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if n := len(value); n > hv.maxValueLength {
		return invalidHeader("value", name,
			fmt.Sprintf("头部值长度 %d 超过上限 %d", n, hv.maxValueLength),
			"缩短头部值")
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return invalidHeader("value", name, "头部值包含控制字符", "删除换行符等控制字符")
	}
	return nil
}

// ValidateHeader 检查单个头部
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.IsForbidden(name) {
		return invalidHeader("name", name, "该头部由HTTP客户端维护", fmt.Sprintf("从配置中删除 %s", name))
	}
	if err := hv.ValidateName(name); err != nil {
		return err
	}
	if err := hv.ValidateValue(name, value); err != nil {
		return err
	}
	if http.CanonicalHeaderKey(name) == "Accept-Encoding" {
		return checkAcceptEncoding(value)
	}
	return nil
}

// Validate 检查全部头部, 按名称顺序返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkAcceptEncoding 只允许能被解码的编码, 否则保存的文件会是压缩数据
func checkAcceptEncoding(value string) error {
	for _, part := range strings.Split(value, ",") {
		coding, _, _ := strings.Cut(part, ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		if coding == "" || coding == "*" {
			continue
		}
		if !slices.Contains(decodableEncodings, coding) {
			return invalidHeader("value", "Accept-Encoding",
				fmt.Sprintf("不支持的内容编码 %q", coding),
				"只使用 gzip, deflate, br")
		}
	}
	return nil
}

func invalidHeader(field, name, reason, suggestion string) *models.ValidationError {
	return &models.ValidationError{
		Field:      field,
		HeaderName: name,
		Reason:     reason,
		Suggestion: suggestion,
	}
}
