package models

import "time"

// Category 资源存储分类
type Category string

const (
	CategoryScript     Category = "script"     // .js
	CategoryServerSide Category = "serverside" // .php
	CategoryImage      Category = "image"      // .png .jpg .jpeg .gif
	CategoryStylesheet Category = "stylesheet" // .css
	CategoryOther      Category = "other"      // 其他
)

// categoryDirs 分类对应的目录名
var categoryDirs = map[Category]string{
	CategoryScript:     "js",
	CategoryServerSide: "php",
	CategoryImage:      "images",
	CategoryStylesheet: "css",
	CategoryOther:      "others",
}

// Dir 返回分类的存储目录名
func (c Category) Dir() string {
	if dir, ok := categoryDirs[c]; ok {
		return dir
	}
	return categoryDirs[CategoryOther]
}

// Categories 返回全部分类(固定顺序)
func Categories() []Category {
	return []Category{CategoryScript, CategoryServerSide, CategoryImage, CategoryStylesheet, CategoryOther}
}

// DefaultIndexFile 无扩展名路径的默认文件名
const DefaultIndexFile = "index.html"

// SavedFile 已保存的资源文件
type SavedFile struct {
	// 标识信息
	ID       string `json:"id"`        // 文件唯一ID
	URL      string `json:"url"`       // 资源URL
	FilePath string `json:"file_path"` // 本地存储路径

	// 元数据
	Category    Category `json:"category"`     // 存储分类
	Size        int64    `json:"size"`         // 文件大小(字节)
	ContentType string   `json:"content_type"` // HTTP Content-Type

	SavedAt time.Time `json:"saved_at"` // 保存时间
}

// NewSavedFile 创建保存记录
func NewSavedFile(url, filePath string, category Category, size int64, contentType string) SavedFile {
	return SavedFile{
		ID:          generateID(),
		URL:         url,
		FilePath:    filePath,
		Category:    category,
		Size:        size,
		ContentType: contentType,
		SavedAt:     time.Now(),
	}
}
