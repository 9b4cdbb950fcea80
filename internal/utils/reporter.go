package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
)

// 报告文件名
const (
	ReportsDirName  = "reports"
	CrawlReportFile = "crawl_report.json"
	SavedFilesFile  = "saved_files.json"
	FailedFilesFile = "failed_files.json"
)

// Reporter 报告生成器
type Reporter struct {
	fs        afero.Fs
	outputDir string
}

// NewReporter 创建报告生成器, fs为nil时使用操作系统文件系统
func NewReporter(fs afero.Fs, outputDir string) *Reporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Reporter{
		fs:        fs,
		outputDir: outputDir,
	}
}

// ReportsDir 返回报告目录
func (r *Reporter) ReportsDir() string {
	return filepath.Join(r.outputDir, ReportsDirName)
}

// GenerateReport 生成爬取报告
// 输出 crawl_report.json, saved_files.json, failed_files.json
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	reportsDir := r.ReportsDir()
	if err := r.fs.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	if report.SavedFiles == nil {
		report.SavedFiles = []models.SavedFile{}
	}
	if report.FailedFiles == nil {
		report.FailedFiles = []models.FailedFileInfo{}
	}

	// 保存主报告
	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := afero.WriteFile(r.fs, filepath.Join(reportsDir, CrawlReportFile), data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	// 保存成功文件列表
	if err := r.saveJSONReport(reportsDir, SavedFilesFile, report.SavedFiles); err != nil {
		return err
	}

	// 保存失败文件列表
	if err := r.saveJSONReport(reportsDir, FailedFilesFile, report.FailedFiles); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := afero.WriteFile(r.fs, path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条, 用于批量模式的目标进度
func NewProgressBar(out io.Writer, max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
