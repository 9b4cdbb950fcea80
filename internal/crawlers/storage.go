package crawlers

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/spf13/afero"
)

// Storage 资源落盘
// 路径格式: {baseDir}/{category}/{host}/{url path}
type Storage struct {
	fs      afero.Fs
	baseDir string
}

// NewStorage 创建存储器, fs为nil时使用操作系统文件系统
func NewStorage(fs afero.Fs, baseDir string) *Storage {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Storage{fs: fs, baseDir: baseDir}
}

// BaseDir 返回输出根目录
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// FilePath 计算URL对应的本地路径(不访问文件系统)
// 例如:
//
//	https://example.com/app.js -> {baseDir}/js/example.com/app.js
//	https://example.com/blog   -> {baseDir}/others/example.com/blog/index.html
func (s *Storage) FilePath(rawURL string, category models.Category) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}

	host := parsed.Host
	if host == "" {
		host = "unknown"
	}

	// 以"/"为根清理路径, 防止 ".." 跳出输出目录
	urlPath := path.Clean("/" + parsed.Path)
	if path.Ext(urlPath) == "" {
		urlPath = path.Join(urlPath, models.DefaultIndexFile)
	}

	return filepath.Join(s.baseDir, category.Dir(), host, filepath.FromSlash(urlPath)), nil
}

// Persist 保存资源内容, 返回写入的路径
// 已存在的文件会被覆盖
func (s *Storage) Persist(rawURL string, category models.Category, data []byte) (string, error) {
	filePath, err := s.FilePath(rawURL, category)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(filePath)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
	}

	// 先写临时文件再重命名, 避免留下半截文件
	tmp, err := afero.TempFile(s.fs, dir, ".part-*")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败 [%s]: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("写入文件失败 [%s]: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("写入文件失败 [%s]: %w", filePath, err)
	}
	if err := s.fs.Rename(tmpName, filePath); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("重命名文件失败 [%s]: %w", filePath, err)
	}

	return filePath, nil
}
