package crawlers

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/gocolly/colly/v2"
)

// FetchResult 一次成功获取的结果
type FetchResult struct {
	URL         string
	Body        []byte // 解码后的原始响应体, 与服务器返回的字节一致
	Text        []byte // 按charset转换为UTF-8的响应体, 用于链接提取
	ContentType string
	Saved       models.SavedFile
	Attempts    int
}

// Fetcher 单个URL的获取与保存
// 不负责链接发现, 只产生 VisitedSet / Manifest 上的副作用
type Fetcher struct {
	session *Session

	// 重试等待, 测试中可替换
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher 创建获取器
func NewFetcher(session *Session) *Fetcher {
	return &Fetcher{
		session: session,
		sleep:   sleepContext,
	}
}

// FetchAndSave 获取并保存URL, 成功返回true
// 已访问的URL立即返回false
func (f *Fetcher) FetchAndSave(ctx context.Context, rawURL string) bool {
	_, ok := f.Fetch(ctx, rawURL)
	return ok
}

// Fetch 获取并保存URL, 同时返回响应体供页面解析复用
// 处理流程:
//  1. VisitedSet去重 (在任何网络操作之前)
//  2. 获取并发许可
//  3. 最多请求 Retries 次, 失败之间随机等待
//  4. 分类并落盘, 追加保存记录
//  5. 释放许可
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, bool) {
	s := f.session

	if !s.visited.TryMark(rawURL) {
		utils.Debugf("URL已分派,跳过: %s", rawURL)
		return nil, false
	}
	s.progress.AddTarget()

	if err := s.limiter.Acquire(ctx, 1); err != nil {
		s.recordFailure(&models.FetchError{URL: rawURL, Kind: models.ErrorKindNetwork, Err: err})
		return nil, false
	}
	defer s.limiter.Release(1)

	page, attempts, err := f.download(ctx, rawURL)
	if err != nil {
		fe := &models.FetchError{URL: rawURL, Kind: models.ErrorKindNetwork, Attempts: attempts, Err: err}
		s.recordFailure(fe)
		utils.Warnf("❌ 放弃URL: %v", fe)
		return nil, false
	}

	// Content-Encoding已由decodingTransport解码, charset未转换
	body := page.raw
	contentType := page.resp.Headers.Get("Content-Type")
	category := Classify(rawURL)

	filePath, err := s.storage.Persist(rawURL, category, body)
	if err != nil {
		fe := &models.FetchError{URL: rawURL, Kind: models.ErrorKindIO, Attempts: attempts, Err: err}
		s.recordFailure(fe)
		utils.Errorf("保存文件失败: %v", fe)
		return nil, false
	}

	saved := models.NewSavedFile(rawURL, filePath, category, int64(len(body)), contentType)
	s.manifest.Append(saved)
	s.progress.RecordSave()

	utils.Infof("📥 已保存: %s (%d bytes) - %s", filePath, len(body), rawURL)
	if done, total := s.progress.Snapshot(); total > 0 {
		utils.Debugf("进度: %d/%d (%.2f%%)", done, total, s.progress.Percent())
	}

	return &FetchResult{
		URL:         rawURL,
		Body:        body,
		Text:        page.resp.Body,
		ContentType: contentType,
		Saved:       saved,
		Attempts:    attempts,
	}, true
}

// fetchedPage 一次成功请求的响应
// resp.Body 可能已被colly按charset转换, raw 是转换前的字节
type fetchedPage struct {
	resp *colly.Response
	raw  []byte
}

// download 带重试地请求URL, 返回响应和实际请求次数
func (f *Fetcher) download(ctx context.Context, rawURL string) (*fetchedPage, int, error) {
	retries := f.session.config.Retries

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}

		page, err := f.get(rawURL)
		if err == nil {
			return page, attempt, nil
		}
		lastErr = err
		utils.Warnf("获取失败 [%s] (第%d/%d次): %v", rawURL, attempt, retries, err)

		if attempt < retries {
			if err := f.sleep(ctx, f.backoff()); err != nil {
				return nil, attempt, err
			}
		}
	}

	return nil, retries, lastErr
}

// get 发起一次GET请求, 非2xx视为失败
func (f *Fetcher) get(rawURL string) (*fetchedPage, error) {
	s := f.session

	key := s.nextCaptureKey()
	headers := s.requestHeaders()
	headers.Set(captureHeader, key)

	cctx := colly.NewContext()
	err := s.collector.Request(http.MethodGet, rawURL, nil, cctx, headers)
	raw, captured := s.raw.take(key)
	if err != nil {
		return nil, err
	}

	resp, ok := cctx.GetAny(responseCtxKey).(*colly.Response)
	if !ok || resp == nil {
		return nil, fmt.Errorf("未收到响应")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.StatusError{StatusCode: resp.StatusCode}
	}
	if !captured {
		raw = resp.Body
	}
	return &fetchedPage{resp: resp, raw: raw}, nil
}

// backoff 返回 [BackoffMin, BackoffMax] 内的随机等待时间
func (f *Fetcher) backoff() time.Duration {
	lo, hi := f.session.config.BackoffMin, f.session.config.BackoffMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo+1)))
}

// sleepContext 可被ctx打断的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
