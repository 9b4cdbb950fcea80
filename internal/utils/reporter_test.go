package utils

import (
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/spf13/afero"
)

func TestReporter_GenerateReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	reporter := NewReporter(fs, "/out")

	report := &models.CrawlReport{
		TaskID:    "task-1",
		TargetURL: "https://example.com/",
		Domain:    "example.com",
		Status:    models.TaskStatusCompleted,
		StartTime: time.Now().Add(-time.Second),
		EndTime:   time.Now(),
		Stats:     models.TaskStats{SavedFiles: 1},
		SavedFiles: []models.SavedFile{
			models.NewSavedFile("https://example.com/", "/out/others/example.com/index.html", models.CategoryOther, 12, "text/html"),
		},
		OutputDir: "/out",
		Config:    models.DefaultCrawlConfig(),
	}

	if err := reporter.GenerateReport(report); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	reportsDir := filepath.Join("/out", ReportsDirName)
	if reporter.ReportsDir() != reportsDir {
		t.Errorf("ReportsDir() = %s", reporter.ReportsDir())
	}

	data, err := afero.ReadFile(fs, filepath.Join(reportsDir, CrawlReportFile))
	if err != nil {
		t.Fatalf("读取主报告失败: %v", err)
	}
	var loaded models.CrawlReport
	if err := loaded.FromJSON(data); err != nil {
		t.Fatalf("解析主报告失败: %v", err)
	}
	if loaded.TaskID != "task-1" || len(loaded.SavedFiles) != 1 {
		t.Errorf("主报告内容不正确: %+v", loaded)
	}

	// 没有失败时写入空数组而不是null
	failed, err := afero.ReadFile(fs, filepath.Join(reportsDir, FailedFilesFile))
	if err != nil {
		t.Fatalf("读取失败列表失败: %v", err)
	}
	var failures []models.FailedFileInfo
	if err := json.Unmarshal(failed, &failures); err != nil || failures == nil {
		t.Errorf("失败列表应为空数组, 得到: %s", failed)
	}

	if ok, _ := afero.Exists(fs, filepath.Join(reportsDir, SavedFilesFile)); !ok {
		t.Error("saved_files.json 未生成")
	}
}

func TestNewProgressBar(t *testing.T) {
	bar := NewProgressBar(io.Discard, 3, "批量爬取")
	for i := 0; i < 3; i++ {
		if err := bar.Add(1); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if got := bar.State().CurrentNum; got != 3 {
		t.Errorf("CurrentNum = %d, want 3", got)
	}
}
