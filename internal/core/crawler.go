package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/RecoveryAshes/webmirror/internal/crawlers"
	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/spf13/afero"
)

// CrawlerOptions 主爬取器可选项
type CrawlerOptions struct {
	// Fs 输出文件系统, 为nil时使用操作系统文件系统
	Fs afero.Fs

	// HeaderProvider HTTP头部提供者
	HeaderProvider models.HeaderProvider

	// Prompter 暂停询问, 为nil时不询问
	Prompter crawlers.Prompter

	// ProgressOut 进度条输出, 为nil时不渲染
	ProgressOut io.Writer

	// HTTPClient 覆盖默认HTTP客户端
	HTTPClient *http.Client

	// Reports 是否生成JSON报告
	Reports bool

	// ReportDir 报告根目录, 报告写入 {ReportDir}/reports, 为空时使用输出目录
	ReportDir string
}

// Crawler 主爬取器协调器
// 负责单个入口URL的完整生命周期: 会话创建、爬取、统计和报告
type Crawler struct {
	task      *models.CrawlTask
	outputDir string
	opts      CrawlerOptions

	mu      sync.RWMutex
	summary *crawlers.Summary
}

// NewCrawler 创建主爬取器
func NewCrawler(targetURL string, config models.CrawlConfig, outputDir string, opts CrawlerOptions) (*Crawler, error) {
	task, err := models.NewCrawlTask(targetURL, config)
	if err != nil {
		return nil, fmt.Errorf("创建爬取任务失败: %w", err)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	return &Crawler{
		task:      task,
		outputDir: outputDir,
		opts:      opts,
	}, nil
}

// Crawl 执行爬取任务
// 执行流程:
//  1. 创建会话 (HTTP会话、许可池、存储)
//  2. 从入口URL开始镜像同源资源
//  3. 汇总统计信息
//  4. 生成爬取报告
func (c *Crawler) Crawl(ctx context.Context) error {
	startTime := time.Now()

	utils.Infof("🚀 开始爬取任务 [%s]", c.task.ID)
	utils.Infof("目标URL: %s", c.task.TargetURL)
	utils.Infof("域名: %s", c.task.Domain)
	utils.Infof("输出目录: %s", c.outputDir)

	storage := crawlers.NewStorage(c.opts.Fs, c.outputDir)
	session, err := crawlers.NewSession(c.task.Config, storage, crawlers.SessionOptions{
		HeaderProvider: c.opts.HeaderProvider,
		ProgressOut:    c.opts.ProgressOut,
		HTTPClient:     c.opts.HTTPClient,
	})
	if err != nil {
		c.task.Finish(models.TaskStatusFailed, models.TaskStats{}, err)
		return fmt.Errorf("创建爬取会话失败: %w", err)
	}

	c.task.Status = models.TaskStatusRunning
	orchestrator := crawlers.NewOrchestrator(session, c.opts.Prompter)
	summary, crawlErr := orchestrator.Crawl(ctx, c.task.TargetURL)
	if summary == nil {
		c.task.Finish(models.TaskStatusFailed, models.TaskStats{}, crawlErr)
		return crawlErr
	}

	summary.Stats.Duration = time.Since(startTime).Seconds()

	c.mu.Lock()
	c.summary = summary
	c.mu.Unlock()

	c.task.Finish(statusOf(summary, crawlErr), summary.Stats, crawlErr)

	if c.opts.Reports {
		if err := c.writeReport(startTime); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}
	}

	if crawlErr != nil {
		return crawlErr
	}

	utils.Infof("✅ 爬取任务完成")
	utils.Infof("已保存文件: %d, 失败: %d", summary.Stats.SavedFiles, summary.Stats.FailedFiles)
	utils.Infof("总耗时: %.2f秒", summary.Stats.Duration)
	return nil
}

// statusOf 根据爬取结果确定任务状态
func statusOf(summary *crawlers.Summary, err error) models.TaskStatus {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.TaskStatusCancelled
	case err != nil:
		return models.TaskStatusFailed
	case summary.Declined:
		return models.TaskStatusCancelled
	default:
		return models.TaskStatusCompleted
	}
}

// writeReport 生成JSON报告
func (c *Crawler) writeReport(startTime time.Time) error {
	c.mu.RLock()
	summary := c.summary
	c.mu.RUnlock()

	endTime := time.Now()
	if c.task.CompletedAt != nil {
		endTime = *c.task.CompletedAt
	}

	report := &models.CrawlReport{
		TaskID:      c.task.ID,
		TargetURL:   c.task.TargetURL,
		Domain:      c.task.Domain,
		Status:      c.task.Status,
		StartTime:   startTime,
		EndTime:     endTime,
		Duration:    summary.Stats.Duration,
		Stats:       summary.Stats,
		SavedFiles:  summary.SavedFiles,
		FailedFiles: summary.Failures,
		OutputDir:   c.outputDir,
		Config:      c.task.Config,
	}

	reportDir := c.opts.ReportDir
	if reportDir == "" {
		reportDir = c.outputDir
	}
	return utils.NewReporter(c.opts.Fs, reportDir).GenerateReport(report)
}

// Task 返回爬取任务
func (c *Crawler) Task() *models.CrawlTask {
	return c.task
}

// GetStats 获取统计信息
func (c *Crawler) GetStats() models.TaskStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.summary == nil {
		return models.TaskStats{}
	}
	return c.summary.Stats
}

// SavedFiles 返回已保存文件清单 (完成顺序)
func (c *Crawler) SavedFiles() []models.SavedFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.summary == nil {
		return nil
	}
	return c.summary.SavedFiles
}

// Failures 返回放弃的URL
func (c *Crawler) Failures() []models.FailedFileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.summary == nil {
		return nil
	}
	return c.summary.Failures
}

// GetOutputDir 获取输出目录路径
func (c *Crawler) GetOutputDir() string {
	return c.outputDir
}
