package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseURLList(t *testing.T) {
	input := `# 目标列表
https://example.com/

  http://example.org/docs  
ftp://example.net/
not a url
`
	urls, err := ParseURLList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseURLList() error = %v", err)
	}

	want := []string{"https://example.com/", "http://example.org/docs"}
	if len(urls) != len(want) {
		t.Fatalf("期望 %d 个URL, 得到 %d: %v", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %s, want %s", i, urls[i], want[i])
		}
	}

	if _, err := ParseURLList(strings.NewReader("# 只有注释\n\n")); err == nil {
		t.Error("没有有效URL时应该返回错误")
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("https://example.com/\n"), 0644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile() error = %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://example.com/" {
		t.Errorf("得到: %v", urls)
	}

	if _, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("文件不存在时应该返回错误")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.size); got != tt.want {
			t.Errorf("FormatSize(%d) = %s, want %s", tt.size, got, tt.want)
		}
	}
}
