package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"golang.org/x/net/html"
)

// resourceAttrs 资源标签及其URL属性
var resourceAttrs = map[string]string{
	"img":    "src",
	"link":   "href",
	"script": "src",
}

// URLExtractor URL提取器
// 职责: 从页面HTML中提取资源和链接, 解析为绝对URL, 仅保留同源目标
type URLExtractor struct{}

// NewURLExtractor 创建URL提取器实例
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{}
}

// ExtractTargets 从HTML提取同源资源URL和链接URL
// HTML格式错误时返回已提取的部分结果和错误
func (e *URLExtractor) ExtractTargets(htmlContent string, pageURL string) (models.Targets, error) {
	var targets models.Targets

	base, err := url.Parse(pageURL)
	if err != nil {
		return targets, fmt.Errorf("解析页面URL失败: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return targets, fmt.Errorf("解析HTML失败: %w", err)
	}

	seenResources := make(map[string]bool)
	seenLinks := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := resourceAttrs[n.Data]; ok {
				if target, ok := e.resolve(base, attrValue(n, attr)); ok && !seenResources[target] {
					seenResources[target] = true
					targets.Resources = append(targets.Resources, target)
				}
			} else if n.Data == "a" {
				if target, ok := e.resolve(base, attrValue(n, "href")); ok && !seenLinks[target] {
					seenLinks[target] = true
					targets.Links = append(targets.Links, target)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return targets, nil
}

// resolve 将候选URL解析为绝对URL, 不同源或不可跟随时返回false
func (e *URLExtractor) resolve(base *url.URL, candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	ref, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)

	if follow, _ := e.ShouldFollow(abs, base.Host); !follow {
		return "", false
	}
	return models.NormalizeURL(abs), true
}

// ShouldFollow 判断绝对URL是否应被跟随
func (e *URLExtractor) ShouldFollow(target *url.URL, pageHost string) (bool, string) {
	if target.Scheme != "http" && target.Scheme != "https" {
		return false, "不支持的协议"
	}
	if !strings.EqualFold(target.Host, pageHost) {
		return false, "跨域链接已过滤"
	}
	return true, ""
}

// attrValue 返回节点属性值, 不存在时返回空串
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// IsHTMLContent 判断Content-Type是否可能是HTML
// 缺失Content-Type时按HTML处理
func IsHTMLContent(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return true
	}
	return strings.Contains(ct, "html")
}
