package main

import (
	"fmt"

	"github.com/RecoveryAshes/webmirror/internal/models"
)

// ValidateFlags 验证命令行参数与合并后的爬取配置
func ValidateFlags(targetURL string, config models.CrawlConfig) error {
	if targetURL != "" {
		if err := models.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("无效的爬取配置: %w", err)
	}

	return nil
}
