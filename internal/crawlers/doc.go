// Package crawlers 提供同源网站递归镜像功能
//
// # 概述
//
// crawlers包从一个入口URL开始, 下载页面及其引用的图片、样式表、脚本,
// 按资源类别保存到本地目录, 并沿同源超链接继续展开, 直到没有新的URL.
//
// # 核心组件
//
// ## Session
//
// 一次爬取的共享状态: colly HTTP会话、并发许可池(semaphore)、
// 已分派URL集合、已保存文件清单、进度计数器和存储.
//
//	storage := NewStorage(afero.NewOsFs(), "output")
//	session, err := NewSession(models.DefaultCrawlConfig(), storage, SessionOptions{ProgressOut: os.Stderr})
//
// ## Fetcher
//
// 获取并保存单个URL. 在任何网络操作之前写入VisitedSet,
// 持有一个并发许可完成全部重试, 成功后分类并落盘.
//
//	fetcher := NewFetcher(session)
//	ok := fetcher.FetchAndSave(ctx, "https://example.com/app.js")
//
// ## URLExtractor
//
// 解析HTML, 提取 img[src]、link[href]、script[src] 资源和 a[href] 链接,
// 基于页面URL解析相对地址, 只保留与页面同主机的http(s)地址.
//
// ## PauseGate
//
// 每保存N个文件询问一次是否继续. 交互输入由单独的goroutine独占,
// 页面worker通过channel询问. 用户拒绝后闸门保持关闭.
//
// ## Orchestrator
//
// 爬取调度器. 页面worker从URLQueue取出页面, 获取保存后复用响应体提取目标,
// 并发下载资源, 再把未访问的链接放回队列:
//
//	orchestrator := NewOrchestrator(session, prompter)
//	summary, err := orchestrator.Crawl(ctx, "https://example.com/")
//
// # 输出布局
//
//	{baseDir}/js/{host}/{path}
//	{baseDir}/php/{host}/{path}
//	{baseDir}/images/{host}/{path}
//	{baseDir}/css/{host}/{path}
//	{baseDir}/others/{host}/{path}      # 无扩展名的路径追加 index.html
//
// # 并发安全
//
//   - VisitedSet: 检查与写入在同一把锁内完成
//   - Manifest/Progress: sync.Mutex
//   - 并发请求数: semaphore.Weighted, 上限为 crawl.concurrency
//   - 页面展开: errgroup, worker数为 crawl.page_workers
//
// # 错误处理
//
//   - 单个URL失败不会中止爬取, 失败记录在 Session.Failures
//   - 入口页面失败时 Crawl 返回 ErrSeedFailed
//   - ctx取消后不再发起新请求, 已保存的文件保留
package crawlers
