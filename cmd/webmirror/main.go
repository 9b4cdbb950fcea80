package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/webmirror/internal/core"
	"github.com/RecoveryAshes/webmirror/internal/crawlers"
	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 爬取参数
	targetURL   string
	urlFile     string
	outputDir   string
	concurrency int
	retries     int
	maxDepth    int
	timeout     time.Duration
	noPause     bool

	// 批量处理参数
	batchDelay      time.Duration
	continueOnError bool
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "webmirror",
	Short: "同源网站递归镜像工具",
	Long: `webmirror - 同源网站递归镜像工具

从入口URL开始下载页面及其引用的图片、样式表和脚本,
按类别保存到本地目录, 并沿同源链接继续展开:
  • 并发下载, 失败自动重试
  • 按 js/php/images/css/others 分类保存
  • 每保存N个文件询问是否继续
  • 批量URL处理
  • 自定义HTTP请求头

示例:
  # 交互模式
  webmirror

  # 指定入口URL和输出目录
  webmirror -u https://example.com -o mirror

  # 自定义请求头, 不询问
  webmirror -u https://example.com -H "Cookie: sid=abc" --no-pause

  # 验证头部配置文件
  webmirror --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		config.MergeCLIFlags(core.CLIFlags{
			OutputDir:   flagString(cmd, "output", outputDir),
			LogLevel:    logLevel,
			Concurrency: concurrency,
			Retries:     retries,
			MaxDepth:    maxDepth,
			Timeout:     timeout,
			NoPause:     noPause,
		})

		if err := utils.InitLogger(config.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("webmirror %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// flagString 仅在用户显式指定时返回参数值
func flagString(cmd *cobra.Command, name, value string) string {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return value
	}
	return ""
}

func run(cmd *cobra.Command, args []string) error {
	console := utils.NewConsole(os.Stdin, os.Stdout)

	headerManager, err := core.NewHeaderManager(afero.NewOsFs(), appConfig.Headers.File, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if validateConfig {
		return runValidateConfig(console, headerManager)
	}

	baseDir := appConfig.Output.BaseDir

	// 没有提供URL时进入交互模式
	if targetURL == "" && urlFile == "" {
		seed, dir, err := interactiveTarget(console, baseDir)
		if errors.Is(err, errShowHelp) {
			return cmd.Help()
		}
		if err != nil {
			return err
		}
		targetURL, baseDir = seed, dir
	}

	crawlConfig := appConfig.GetCrawlConfig()
	if err := ValidateFlags(targetURL, crawlConfig); err != nil {
		return err
	}

	// Ctrl+C 取消爬取, 已保存的文件保留
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := core.CrawlerOptions{
		HeaderProvider: headerManager,
		ProgressOut:    os.Stderr,
		Reports:        appConfig.Output.Reports,
	}
	if crawlConfig.PauseEvery > 0 {
		opts.Prompter = console
	}

	if urlFile != "" {
		return runBatch(ctx, console, crawlConfig, baseDir, opts)
	}

	crawler, err := core.NewCrawler(targetURL, crawlConfig, baseDir, opts)
	if err != nil {
		return fmt.Errorf("创建爬取器失败: %w", err)
	}

	crawlErr := crawler.Crawl(ctx)
	printResult(console, crawler)

	switch {
	case errors.Is(crawlErr, crawlers.ErrSeedFailed):
		return fmt.Errorf("无法获取入口页面: %w", crawlErr)
	case errors.Is(crawlErr, context.Canceled):
		console.Warn("爬取已中断, 已保存的文件保留在 %s", baseDir)
		return nil
	case crawlErr != nil:
		return fmt.Errorf("爬取失败: %w", crawlErr)
	}

	console.Success("爬取任务完成!")
	return nil
}

// runBatch 批量爬取URL文件中的所有入口
func runBatch(ctx context.Context, console *utils.Console, config models.CrawlConfig, baseDir string, opts core.CrawlerOptions) error {
	urls, err := utils.ReadURLsFromFile(urlFile)
	if err != nil {
		return fmt.Errorf("读取URL文件失败: %w", err)
	}

	// 批量模式只渲染目标级进度条
	opts.ProgressOut = nil
	batch := core.NewBatchCrawler(config, baseDir, batchDelay, continueOnError, opts)
	batch.SetProgressOutput(os.Stderr)

	summary, err := batch.CrawlBatch(ctx, urls)
	if err != nil {
		return fmt.Errorf("批量爬取失败: %w", err)
	}

	if summary.FailCount > 0 {
		console.Warn("批量爬取完成: 成功 %d, 失败 %d", summary.SuccessCount, summary.FailCount)
	} else {
		console.Success("批量爬取完成: 成功 %d", summary.SuccessCount)
	}
	return nil
}

// runValidateConfig 验证HTTP头部配置并显示脱敏后的结果
func runValidateConfig(console *utils.Console, hm *core.HeaderManager) error {
	console.Info("验证HTTP头部配置: %s", hm.ConfigPath())
	if err := hm.LoadConfig(); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders := hm.GetSafeHeaders()
	console.Success("配置验证通过!")
	console.Info("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	console.Println(hm.SafeHeadersString())
	return nil
}

// printResult 输出保存的文件和统计信息
func printResult(console *utils.Console, crawler *core.Crawler) {
	files := crawler.SavedFiles()
	if len(files) > 0 {
		console.Println("\n已保存的文件:")
		for _, f := range files {
			console.Println("  " + f.FilePath)
		}
	}

	stats := crawler.GetStats()
	console.Println("\n==================================================")
	console.Println("📊 爬取统计")
	console.Println("==================================================")
	console.Println(fmt.Sprintf("✅ 访问URL数: %d", stats.VisitedURLs))
	console.Println(fmt.Sprintf("✅ 展开页面数: %d", stats.PagesCount))
	console.Println(fmt.Sprintf("✅ 保存文件数: %d", stats.SavedFiles))
	for _, category := range models.Categories() {
		if n := stats.ByCategory[category]; n > 0 {
			console.Println(fmt.Sprintf("   %-8s %d", category.Dir(), n))
		}
	}
	console.Println(fmt.Sprintf("❌ 失败URL数: %d", stats.FailedFiles))
	console.Println(fmt.Sprintf("📦 总大小: %s", utils.FormatSize(stats.TotalSize)))
	console.Println(fmt.Sprintf("⏱️  总耗时: %.2f秒", stats.Duration))
	console.Println("==================================================")

	for _, failure := range crawler.Failures() {
		console.Error("%s (%s): %s", failure.URL, failure.ErrorType, failure.ErrorMsg)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证头部配置文件正确性")

	// 爬取参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "入口URL (不指定时进入交互模式)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "输出目录")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "并发请求数上限 (默认使用配置文件)")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "每个URL的最大尝试次数 (默认使用配置文件)")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "最大页面深度, 0表示不限制")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "单次请求超时, 如 30s")
	rootCmd.Flags().BoolVar(&noPause, "no-pause", false, "不询问是否继续")

	// 批量处理参数
	rootCmd.Flags().DurationVar(&batchDelay, "batch-delay", time.Second, "批量处理URL间延迟")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = utils.CloseLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
