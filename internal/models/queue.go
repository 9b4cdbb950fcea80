package models

// URLItem 表示队列中的一个待展开页面
type URLItem struct {
	// URL 完整的URL字符串
	URL string

	// Depth 页面深度
	//   - 0: 入口URL
	//   - 1: 从入口页面发现的链接
	//   - 以此类推...
	Depth int

	// SourceURL 发现此URL的源页面(可选,用于调试)
	SourceURL string
}

// Targets 从一个页面中提取到的同源目标
type Targets struct {
	// Resources img/link/script 引用的资源URL
	Resources []string

	// Links a标签指向的页面URL
	Links []string
}
