package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"golang.org/x/sync/errgroup"
)

// ErrSeedFailed 入口页面获取失败, 本次爬取没有发现任何资源
var ErrSeedFailed = errors.New("入口页面获取失败")

// Summary 一次爬取的结果
type Summary struct {
	SeedURL    string
	SavedFiles []models.SavedFile      // 完成顺序
	Failures   []models.FailedFileInfo // 放弃的URL
	Stats      models.TaskStats
	Declined   bool // 用户在暂停提示处选择了停止
}

// Orchestrator 爬取调度器
// 以队列代替递归: 页面worker从URLQueue取页面, 获取保存后并发下载其资源,
// 再把未访问的同源链接放回队列. VisitedSet是唯一的环路终止机制
type Orchestrator struct {
	session   *Session
	fetcher   *Fetcher
	extractor *URLExtractor
	gate      *PauseGate

	pages      atomic.Int64
	seedLoaded atomic.Bool
}

// NewOrchestrator 创建调度器, prompter为nil时不询问
func NewOrchestrator(session *Session, prompter Prompter) *Orchestrator {
	return &Orchestrator{
		session:   session,
		fetcher:   NewFetcher(session),
		extractor: NewURLExtractor(),
		gate:      NewPauseGate(session.config.PauseEvery, prompter),
	}
}

// Fetcher 返回底层获取器
func (o *Orchestrator) Fetcher() *Fetcher {
	return o.fetcher
}

// Crawl 从入口URL开始爬取, 直到没有待处理页面或ctx取消
func (o *Orchestrator) Crawl(ctx context.Context, seedURL string) (*Summary, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("解析入口URL失败: %w", err)
	}
	seedURL = models.NormalizeURL(seed)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go o.gate.Run(runCtx)

	queue := NewURLQueue(o.session.config.MaxDepth)
	stop := context.AfterFunc(runCtx, queue.Close)
	defer stop()

	if err := queue.Push(models.URLItem{URL: seedURL, Depth: 0}); err != nil {
		return nil, fmt.Errorf("入口URL入队失败: %w", err)
	}

	utils.Infof("🚀 开始爬取: %s", seedURL)
	utils.Infof("并发请求数: %d, 页面worker: %d, 重试次数: %d",
		o.session.config.Concurrency, o.session.config.PageWorkers, o.session.config.Retries)

	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < o.session.config.PageWorkers; i++ {
		g.Go(func() error {
			for {
				item, ok := queue.Pop()
				if !ok {
					return nil
				}
				o.processPage(gctx, queue, item)
				queue.Done()
			}
		})
	}
	_ = g.Wait()

	o.session.progress.Finish()
	summary := o.summary(seedURL)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("爬取被中断: %w", err)
	}
	if !o.seedLoaded.Load() {
		return summary, fmt.Errorf("%w: %s", ErrSeedFailed, seedURL)
	}
	return summary, nil
}

// processPage 展开一个页面
//  1. 获取并保存页面本身 (已访问或失败则结束)
//  2. 暂停闸门
//  3. 复用第1步的响应体提取资源和链接
//  4. 并发下载全部资源并等待
//  5. 未访问的链接放入队列
func (o *Orchestrator) processPage(ctx context.Context, queue *URLQueue, item models.URLItem) {
	if o.gate.Declined() {
		return
	}

	res, ok := o.fetcher.Fetch(ctx, item.URL)
	if !ok {
		return
	}
	if item.Depth == 0 {
		o.seedLoaded.Store(true)
	}
	o.pages.Add(1)

	if !o.gate.Allow(ctx, o.session.manifest.Len()) {
		return
	}

	if !IsHTMLContent(res.ContentType) {
		utils.Debugf("非HTML内容,不解析链接: %s (%s)", item.URL, res.ContentType)
		return
	}

	targets, err := o.extractor.ExtractTargets(string(res.Text), item.URL)
	if err != nil {
		// 解析失败时使用已提取的部分结果
		utils.Debugf("%s [%s]: %v", models.ErrorKindParse, item.URL, err)
	}
	utils.Debugf("页面 %s: 资源 %d 个, 链接 %d 个", item.URL, len(targets.Resources), len(targets.Links))

	var resources errgroup.Group
	for _, resourceURL := range targets.Resources {
		resourceURL := resourceURL
		resources.Go(func() error {
			o.fetcher.FetchAndSave(ctx, resourceURL)
			return nil
		})
	}
	_ = resources.Wait()

	for _, link := range targets.Links {
		if o.session.visited.IsVisited(link) {
			continue
		}
		next := models.URLItem{URL: link, Depth: item.Depth + 1, SourceURL: item.URL}
		if err := queue.Push(next); err != nil {
			utils.Debugf("跳过链接 [%s]: %v", link, err)
		}
	}
}

// summary 汇总结果
func (o *Orchestrator) summary(seedURL string) *Summary {
	stats := o.session.Stats()
	stats.PagesCount = int(o.pages.Load())

	return &Summary{
		SeedURL:    seedURL,
		SavedFiles: o.session.manifest.Files(),
		Failures:   o.session.Failures(),
		Stats:      stats,
		Declined:   o.gate.Declined(),
	}
}
