package core

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// BatchCrawler 批量爬取器
// 每个入口URL使用独立的会话, 已访问集合和保存清单互不影响
type BatchCrawler struct {
	config        models.CrawlConfig
	outputDir     string
	batchDelay    time.Duration
	continueOnErr bool
	opts          CrawlerOptions

	// 目标级进度条输出, 为nil时不渲染
	progressOut io.Writer
}

// BatchResult 单个URL的爬取结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.TaskStats
	SavedFiles  []models.SavedFile
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量爬取摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalFiles    int
	TotalSize     int64
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchCrawler 创建批量爬取器
func NewBatchCrawler(config models.CrawlConfig, outputDir string, batchDelay time.Duration, continueOnErr bool, opts CrawlerOptions) *BatchCrawler {
	return &BatchCrawler{
		config:        config,
		outputDir:     outputDir,
		batchDelay:    batchDelay,
		continueOnErr: continueOnErr,
		opts:          opts,
	}
}

// SetProgressOutput 设置目标级进度条输出
func (bc *BatchCrawler) SetProgressOutput(out io.Writer) {
	bc.progressOut = out
}

// CrawlBatch 依次爬取URL列表
func (bc *BatchCrawler) CrawlBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量爬取: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	var bar *progressbar.ProgressBar
	if bc.progressOut != nil {
		bar = utils.NewProgressBar(bc.progressOut, len(urls), "批量爬取")
	}

	startTime := time.Now()

	for i, targetURL := range urls {
		if err := ctx.Err(); err != nil {
			utils.Warnf("批量爬取被中断, 剩余 %d 个URL未处理", len(urls)-i)
			break
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		result := bc.crawlSingleURL(ctx, targetURL)
		summary.Results = append(summary.Results, result)
		if bar != nil {
			_ = bar.Add(1)
		}

		if result.Success {
			summary.SuccessCount++
			summary.TotalFiles += result.Stats.SavedFiles
			summary.TotalSize += result.Stats.TotalSize
		} else {
			summary.FailCount++
			utils.Errorf("❌ 爬取失败: %v", result.Error)

			if !bc.continueOnErr {
				utils.Warnf("批量爬取中止, 剩余 %d 个URL未处理", len(urls)-i-1)
				break
			}
		}

		// 最后一个URL不需要延迟
		if i < len(urls)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", bc.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(bc.batchDelay):
			}
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	bc.printSummary(summary)

	return summary, ctx.Err()
}

// crawlSingleURL 爬取单个URL
func (bc *BatchCrawler) crawlSingleURL(ctx context.Context, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}
	startTime := time.Now()

	opts := bc.opts
	opts.ReportDir = filepath.Join(bc.outputDir, reportDirName(targetURL))

	crawler, err := NewCrawler(targetURL, bc.config, bc.outputDir, opts)
	if err != nil {
		result.Error = fmt.Errorf("创建爬取器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	if err := crawler.Crawl(ctx); err != nil {
		result.Error = fmt.Errorf("爬取失败: %w", err)
		result.Stats = crawler.GetStats()
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	result.Success = true
	result.Stats = crawler.GetStats()
	result.SavedFiles = crawler.SavedFiles()
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// reportDirName 批量模式下每个目标的报告目录名
func reportDirName(targetURL string) string {
	host := models.HostOf(targetURL)
	if host == "" {
		return "unknown"
	}
	return strings.ReplaceAll(host, ":", "_")
}

// printSummary 输出批量爬取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Logger.Info().
		Int("urls", summary.TotalURLs).
		Int("success", summary.SuccessCount).
		Int("failed", summary.FailCount).
		Int("files", summary.TotalFiles).
		Str("size", utils.FormatSize(summary.TotalSize)).
		Str("duration", fmt.Sprintf("%.2fs", summary.TotalDuration)).
		Msg("📊 批量爬取完成")

	for _, result := range summary.Results {
		if !result.Success {
			utils.Logger.Warn().Str("url", result.URL).Err(result.Error).Msg("目标爬取失败")
		}
	}
}
