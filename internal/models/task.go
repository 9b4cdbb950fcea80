package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
	TaskStatusCancelled TaskStatus = "cancelled" // 用户中止
)

// TaskStats 任务统计
type TaskStats struct {
	VisitedURLs int     `json:"visited_urls"` // 已分派URL数
	SavedFiles  int     `json:"saved_files"`  // 已保存文件数
	PagesCount  int     `json:"pages_count"`  // 已展开页面数
	FailedFiles int     `json:"failed_files"` // 失败URL数
	TotalSize   int64   `json:"total_size"`   // 总大小(字节)
	Duration    float64 `json:"duration"`     // 总耗时(秒)

	// 按分类统计的文件数
	ByCategory map[Category]int `json:"by_category,omitempty"`
}

// CrawlConfig 爬取配置
type CrawlConfig struct {
	Concurrency        int           `json:"concurrency" mapstructure:"concurrency"`                   // 同时进行的请求上限 (默认:10)
	PageWorkers        int           `json:"page_workers" mapstructure:"page_workers"`                 // 并发展开页面数 (默认:10)
	Retries            int           `json:"retries" mapstructure:"retries"`                           // 单个URL请求次数 (默认:3)
	BackoffMin         time.Duration `json:"backoff_min" mapstructure:"backoff_min"`                   // 重试等待下限 (默认:1s)
	BackoffMax         time.Duration `json:"backoff_max" mapstructure:"backoff_max"`                   // 重试等待上限 (默认:3s)
	RequestTimeout     time.Duration `json:"request_timeout" mapstructure:"request_timeout"`           // 单次请求超时 (默认:10s)
	PauseEvery         int           `json:"pause_every" mapstructure:"pause_every"`                   // 每保存N个文件询问是否继续, 0表示不询问 (默认:5)
	MaxDepth           int           `json:"max_depth" mapstructure:"max_depth"`                       // 最大页面深度, 0表示不限制 (默认:0)
	InsecureSkipVerify bool          `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"` // 跳过TLS证书验证 (默认:true)
}

// DefaultCrawlConfig 返回默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		Concurrency:        10,
		PageWorkers:        10,
		Retries:            3,
		BackoffMin:         1 * time.Second,
		BackoffMax:         3 * time.Second,
		RequestTimeout:     10 * time.Second,
		PauseEvery:         5,
		MaxDepth:           0,
		InsecureSkipVerify: true,
	}
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > 100 {
		return fmt.Errorf("并发数必须在1-100之间")
	}
	if c.PageWorkers < 1 || c.PageWorkers > 100 {
		return fmt.Errorf("页面并发数必须在1-100之间")
	}
	if c.Retries < 1 || c.Retries > 10 {
		return fmt.Errorf("重试次数必须在1-10之间")
	}
	if c.BackoffMin < 0 || c.BackoffMax < c.BackoffMin {
		return fmt.Errorf("重试等待区间无效: [%v, %v]", c.BackoffMin, c.BackoffMax)
	}
	if c.RequestTimeout <= 0 || c.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("请求超时必须在0-5分钟之间")
	}
	if c.PauseEvery < 0 {
		return fmt.Errorf("暂停间隔不能为负数")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("最大深度不能为负数")
	}
	return nil
}

// CrawlTask 爬取任务
type CrawlTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	TargetURL   string     `json:"target_url"`             // 入口URL
	Domain      string     `json:"domain"`                 // 解析的主机名
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config CrawlConfig `json:"config"`

	// 执行状态
	Status TaskStatus `json:"status"`

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewCrawlTask 创建新任务
func NewCrawlTask(targetURL string, config CrawlConfig) (*CrawlTask, error) {
	targetURL = strings.TrimSpace(targetURL)
	if err := ValidateURL(targetURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(targetURL)

	return &CrawlTask{
		ID:        generateID(),
		TargetURL: targetURL,
		Domain:    parsed.Host,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
	}, nil
}

// Finish 标记任务结束
func (t *CrawlTask) Finish(status TaskStatus, stats TaskStats, err error) {
	now := time.Now()
	t.CompletedAt = &now
	t.Status = status
	t.Stats = stats
	if err != nil {
		t.ErrorMessage = err.Error()
	}
}
