package crawlers

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/gocolly/colly/v2"
	"golang.org/x/sync/semaphore"
)

// responseCtxKey colly.Context 中保存响应的键
const responseCtxKey = "webmirror.response"

// Manifest 已保存文件清单, 顺序为完成顺序
type Manifest struct {
	mu    sync.RWMutex
	files []models.SavedFile
}

// Append 追加一条保存记录
func (m *Manifest) Append(f models.SavedFile) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, f)
	return len(m.files)
}

// Len 返回已保存文件数
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// Files 返回清单副本
func (m *Manifest) Files() []models.SavedFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := make([]models.SavedFile, len(m.files))
	copy(files, m.files)
	return files
}

// Session 一次爬取的共享状态
// 在爬取开始时创建一次, 以指针形式传给所有并发操作
type Session struct {
	config models.CrawlConfig

	// HTTP会话
	collector *colly.Collector
	headers   http.Header

	// 原始响应体, 按每次请求的标记存取
	raw        *rawBodies
	captureSeq atomic.Uint64

	// 并发许可池, 限制同时进行的请求数
	limiter *semaphore.Weighted

	visited  *VisitedSet
	manifest *Manifest
	progress *Progress
	storage  *Storage

	failMu   sync.Mutex
	failures []models.FailedFileInfo
}

// SessionOptions 会话可选项
type SessionOptions struct {
	// HeaderProvider 请求头部来源, 为nil时只发送默认User-Agent
	HeaderProvider models.HeaderProvider

	// ProgressOut 进度条输出, 为nil时不渲染
	ProgressOut io.Writer

	// HTTPClient 覆盖默认HTTP客户端(测试用)
	HTTPClient *http.Client
}

// NewSession 创建爬取会话
func NewSession(config models.CrawlConfig, storage *Storage, opts SessionOptions) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("爬取配置无效: %w", err)
	}

	headers := http.Header{"User-Agent": []string{models.DefaultUserAgent}}
	if opts.HeaderProvider != nil {
		provided, err := opts.HeaderProvider.GetHeaders()
		if err != nil {
			return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		headers = provided.Clone()
		if headers.Get("User-Agent") == "" {
			headers.Set("User-Agent", models.DefaultUserAgent)
		}
	}

	client := opts.HTTPClient
	if client == nil {
		client = newHTTPClient(config)
	}
	raw := newRawBodies()
	client = withDecoding(client, raw)

	return &Session{
		config:    config,
		collector: newCollector(client),
		headers:   headers,
		raw:       raw,
		limiter:   semaphore.NewWeighted(int64(config.Concurrency)),
		visited:   NewVisitedSet(),
		manifest:  &Manifest{},
		progress:  NewProgress(opts.ProgressOut),
		storage:   storage,
	}, nil
}

// newHTTPClient 创建HTTP客户端
// 证书验证默认关闭, 允许访问自签名或过期证书的站点
func newHTTPClient(config models.CrawlConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: config.InsecureSkipVerify,
			},
			MaxIdleConnsPerHost: config.Concurrency,
		},
		Timeout: config.RequestTimeout,
	}
}

// newCollector 创建colly collector
// 重试需要重复请求同一URL, 去重由VisitedSet负责, 因此允许重访
func newCollector(client *http.Client) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
		colly.UserAgent(models.DefaultUserAgent),
	)
	c.SetClient(client)

	// 把响应交还给发起请求的调用方
	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(responseCtxKey, r)
	})

	return c
}

// requestHeaders 返回一次请求使用的头部副本
func (s *Session) requestHeaders() http.Header {
	return s.headers.Clone()
}

// nextCaptureKey 返回一次请求的原始响应体标记
func (s *Session) nextCaptureKey() string {
	return strconv.FormatUint(s.captureSeq.Add(1), 10)
}

// recordFailure 记录放弃的URL
func (s *Session) recordFailure(fe *models.FetchError) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures = append(s.failures, fe.ToFailedFileInfo())
}

// Visited 返回已分派URL集合
func (s *Session) Visited() *VisitedSet {
	return s.visited
}

// Manifest 返回已保存文件清单
func (s *Session) Manifest() *Manifest {
	return s.manifest
}

// Config 返回爬取配置
func (s *Session) Config() models.CrawlConfig {
	return s.config
}

// Failures 返回失败记录副本
func (s *Session) Failures() []models.FailedFileInfo {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	failures := make([]models.FailedFileInfo, len(s.failures))
	copy(failures, s.failures)
	return failures
}

// Stats 汇总当前统计信息
func (s *Session) Stats() models.TaskStats {
	files := s.manifest.Files()
	stats := models.TaskStats{
		VisitedURLs: s.visited.Len(),
		SavedFiles:  len(files),
		FailedFiles: len(s.Failures()),
		ByCategory:  make(map[models.Category]int),
	}
	for _, f := range files {
		stats.TotalSize += f.Size
		stats.ByCategory[f.Category]++
	}
	return stats
}
