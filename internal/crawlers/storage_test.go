package crawlers

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/spf13/afero"
)

func TestStorage_FilePath(t *testing.T) {
	storage := NewStorage(afero.NewMemMapFs(), "/out")

	tests := []struct {
		name     string
		url      string
		category models.Category
		want     string
	}{
		{"脚本", "https://example.com/static/app.js", models.CategoryScript, "/out/js/example.com/static/app.js"},
		{"无扩展名追加index.html", "https://example.com/blog", models.CategoryOther, "/out/others/example.com/blog/index.html"},
		{"根路径", "https://example.com/", models.CategoryOther, "/out/others/example.com/index.html"},
		{"空路径", "https://example.com", models.CategoryOther, "/out/others/example.com/index.html"},
		{"带端口", "http://127.0.0.1:8080/a.css", models.CategoryStylesheet, "/out/css/127.0.0.1:8080/a.css"},
		{"忽略查询参数", "https://example.com/logo.png?x=1", models.CategoryImage, "/out/images/example.com/logo.png"},
		{"路径穿越", "https://example.com/../../etc/passwd", models.CategoryOther, "/out/others/example.com/etc/passwd/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.FilePath(tt.url, tt.category)
			if err != nil {
				t.Fatalf("FilePath() error = %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("FilePath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStorage_Persist(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := NewStorage(fs, "/out")

	path, err := storage.Persist("https://example.com/app.js", models.CategoryScript, []byte("v1"))
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	// 重复保存覆盖旧内容
	if _, err := storage.Persist("https://example.com/app.js", models.CategoryScript, []byte("v2")); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("文件内容 = %q, want v2", data)
	}

	// 不留下临时文件
	entries, err := afero.ReadDir(fs, filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".part-") {
			t.Errorf("残留临时文件: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("目录中应只有一个文件, 得到 %d", len(entries))
	}
}

func TestStorage_PersistReadOnly(t *testing.T) {
	storage := NewStorage(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/out")

	if _, err := storage.Persist("https://example.com/app.js", models.CategoryScript, []byte("x")); err == nil {
		t.Error("只读文件系统上保存应失败")
	}
}

func TestNewStorage_DefaultFs(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorage(nil, dir)
	if storage.BaseDir() != dir {
		t.Errorf("BaseDir() = %s", storage.BaseDir())
	}

	path, err := storage.Persist("https://example.com/a.css", models.CategoryStylesheet, []byte("body{}"))
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if path != filepath.Join(dir, "css", "example.com", "a.css") {
		t.Errorf("path = %s", path)
	}
}
