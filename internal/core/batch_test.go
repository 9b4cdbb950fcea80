package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/spf13/afero"
)

func TestBatchCrawler_CrawlBatch(t *testing.T) {
	good := newTestSite(t)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	fs := afero.NewMemMapFs()
	bc := NewBatchCrawler(testCrawlConfig(), "/out", 0, true, CrawlerOptions{Fs: fs, Reports: true})
	bc.SetProgressOutput(io.Discard)

	summary, err := bc.CrawlBatch(context.Background(), []string{bad.URL + "/", good.URL + "/"})
	if err != nil {
		t.Fatalf("CrawlBatch() error = %v", err)
	}

	if summary.TotalURLs != 2 || summary.SuccessCount != 1 || summary.FailCount != 1 {
		t.Errorf("摘要不正确: %+v", summary)
	}
	if summary.TotalFiles != 4 {
		t.Errorf("TotalFiles = %d, want 4", summary.TotalFiles)
	}
	if summary.Results[0].Success || !summary.Results[1].Success {
		t.Errorf("结果顺序不正确: %+v", summary.Results)
	}

	// 每个目标的报告独立保存
	report := filepath.Join("/out", reportDirName(good.URL), utils.ReportsDirName, utils.CrawlReportFile)
	if ok, _ := afero.Exists(fs, report); !ok {
		t.Errorf("报告未生成: %s", report)
	}
}

func TestBatchCrawler_StopOnError(t *testing.T) {
	good := newTestSite(t)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	bc := NewBatchCrawler(testCrawlConfig(), "/out", 0, false, CrawlerOptions{Fs: afero.NewMemMapFs()})

	summary, err := bc.CrawlBatch(context.Background(), []string{bad.URL + "/", good.URL + "/"})
	if err != nil {
		t.Fatalf("CrawlBatch() error = %v", err)
	}
	if len(summary.Results) != 1 || summary.FailCount != 1 {
		t.Errorf("失败后应停止: %+v", summary)
	}
}

func TestBatchCrawler_Cancelled(t *testing.T) {
	good := newTestSite(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bc := NewBatchCrawler(testCrawlConfig(), "/out", 0, true, CrawlerOptions{Fs: afero.NewMemMapFs()})
	summary, err := bc.CrawlBatch(ctx, []string{good.URL + "/"})
	if err == nil {
		t.Fatal("期望返回取消错误")
	}
	if len(summary.Results) != 0 {
		t.Errorf("取消后不应处理URL: %+v", summary.Results)
	}
}

func TestReportDirName(t *testing.T) {
	if got := reportDirName("http://127.0.0.1:8080/"); got != "127.0.0.1_8080" {
		t.Errorf("reportDirName() = %s", got)
	}
	if got := reportDirName("::bad"); got != "unknown" {
		t.Errorf("reportDirName() = %s", got)
	}
}
