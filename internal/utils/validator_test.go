package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/webmirror/internal/models"
)

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name      string
		header    string
		value     string
		wantErr   bool
		wantField string
	}{
		{"普通头部", "User-Agent", "Mozilla/5.0", false, ""},
		{"自定义头部", "X-Request-ID-123", "abc", false, ""},
		{"token字符", "X_Trace.Id", "1", false, ""},
		{"空值", "X-Empty", "", false, ""},
		{"制表符", "X-Tab", "a\tb", false, ""},
		{"非ASCII值", "X-Name", "测试", false, ""},
		{"长度上限", "X-Long", strings.Repeat("a", MaxHeaderValueLength), false, ""},
		{"空名称", "", "v", true, "name"},
		{"名称含空格", "User Agent", "v", true, "name"},
		{"名称含@", "User@Agent", "v", true, "name"},
		{"名称含冒号", "X:Y", "v", true, "name"},
		{"超长值", "X-Long", strings.Repeat("a", MaxHeaderValueLength+1), true, "value"},
		{"NUL字符", "X-Bad", "a\x00b", true, "value"},
		{"换行注入", "X-Bad", "a\r\nHost: evil", true, "value"},
		{"Host", "Host", "example.com", true, "name"},
		{"host小写", "host", "example.com", true, "name"},
		{"Content-Length", "Content-Length", "1", true, "name"},
		{"Transfer-Encoding", "transfer-encoding", "chunked", true, "name"},
		{"Upgrade", "Upgrade", "websocket", true, "name"},
		{"可解码编码", "Accept-Encoding", "gzip, deflate, br", false, ""},
		{"带权重的编码", "accept-encoding", "br;q=1.0, identity;q=0.5, *;q=0", false, ""},
		{"无法解码的编码", "Accept-Encoding", "gzip, zstd", true, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateHeader(tt.header, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateHeader(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("期望ValidationError, 得到 %T", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestHeaderValidator_IsForbidden(t *testing.T) {
	validator := NewHeaderValidator()

	for _, name := range []string{"Host", "host", "CONNECTION", "te", "Content-Length"} {
		if !validator.IsForbidden(name) {
			t.Errorf("%s 应被禁止", name)
		}
	}
	for _, name := range []string{"User-Agent", "Cookie", "X-Host"} {
		if validator.IsForbidden(name) {
			t.Errorf("%s 不应被禁止", name)
		}
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := NewHeaderValidator()

	t.Run("全部合法", func(t *testing.T) {
		headers := http.Header{
			"User-Agent": {"Mozilla/5.0"},
			"Accept":     {"*/*"},
			"Cookie":     {"a=1", "b=2"},
		}
		if err := validator.Validate(headers); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("多值中有非法值", func(t *testing.T) {
		headers := http.Header{"X-Custom": {"ok", "bad\x01"}}
		if err := validator.Validate(headers); err == nil {
			t.Error("期望返回错误")
		}
	})

	t.Run("按名称顺序报告", func(t *testing.T) {
		headers := http.Header{
			"Upgrade":        {"h2c"},
			"Content-Length": {"1"},
			"Host":           {"example.com"},
		}
		for i := 0; i < 10; i++ {
			var ve *models.ValidationError
			if err := validator.Validate(headers); !errors.As(err, &ve) || ve.HeaderName != "Content-Length" {
				t.Fatalf("第%d次: error = %v, 期望先报告 Content-Length", i, err)
			}
		}
	})

	t.Run("空头部", func(t *testing.T) {
		if err := validator.Validate(http.Header{}); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}
