package crawlers

import (
	"net/url"
	"strings"

	"github.com/RecoveryAshes/webmirror/internal/models"
)

// categoryRule 后缀 -> 分类
type categoryRule struct {
	suffixes []string
	category models.Category
}

// categoryRules 按顺序匹配, 先命中者生效
var categoryRules = []categoryRule{
	{[]string{".js"}, models.CategoryScript},
	{[]string{".php"}, models.CategoryServerSide},
	{[]string{".png", ".jpg", ".jpeg", ".gif"}, models.CategoryImage},
	{[]string{".css"}, models.CategoryStylesheet},
}

// Classify 根据URL路径后缀确定存储分类
// 查询参数不参与匹配: app.js?v=2 仍归入script
func Classify(rawURL string) models.Category {
	target := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		target = parsed.Path
	}
	target = strings.ToLower(target)

	for _, rule := range categoryRules {
		for _, suffix := range rule.suffixes {
			if strings.HasSuffix(target, suffix) {
				return rule.category
			}
		}
	}
	return models.CategoryOther
}
