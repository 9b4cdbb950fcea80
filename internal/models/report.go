package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 爬取报告
type CrawlReport struct {
	// 任务信息
	TaskID    string     `json:"task_id"`
	TargetURL string     `json:"target_url"`
	Domain    string     `json:"domain"`
	Status    TaskStatus `json:"status"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 文件列表
	SavedFiles  []SavedFile      `json:"saved_files"`  // 按完成顺序
	FailedFiles []FailedFileInfo `json:"failed_files"` // 放弃的URL

	// 输出路径
	OutputDir string `json:"output_dir"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// FailedFileInfo 失败文件信息
type FailedFileInfo struct {
	URL       string    `json:"url"`
	ErrorType ErrorKind `json:"error_type"` // network_error, io_error
	ErrorMsg  string    `json:"error_msg"`
	Retries   int       `json:"retries"` // 实际请求次数
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
