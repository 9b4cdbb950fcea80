package crawlers

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Progress 进度计数器: (已保存, 已知目标)
// 仅用于展示, 不参与流程控制
type Progress struct {
	mu    sync.Mutex
	saved int
	total int
	bar   *progressbar.ProgressBar
}

// NewProgress 创建进度计数器, out为nil时不渲染进度条
func NewProgress(out io.Writer) *Progress {
	p := &Progress{}
	if out != nil {
		p.bar = progressbar.NewOptions(1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(formatPercent(0, 0)),
			progressbar.OptionShowDescriptionAtLineEnd(),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "#",
				SaucerPadding: "-",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	return p
}

// AddTarget 新URL被分派时调用
func (p *Progress) AddTarget() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total++
	if p.bar != nil {
		// 达到上限后进度条停止渲染, 新目标出现时需要重新开始
		if p.bar.IsFinished() {
			p.bar.Reset()
		}
		p.bar.ChangeMax(p.total)
		p.bar.Describe(formatPercent(p.saved, p.total))
		_ = p.bar.Set(p.saved)
	}
}

// RecordSave 文件保存成功时调用, 返回当前已保存数
func (p *Progress) RecordSave() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.saved++
	if p.bar != nil {
		p.bar.Describe(formatPercent(p.saved, p.total))
		_ = p.bar.Set(p.saved)
	}
	return p.saved
}

// Snapshot 返回 (已保存, 已知目标)
func (p *Progress) Snapshot() (saved, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved, p.total
}

// Percent 返回完成百分比 (0-100)
func (p *Progress) Percent() float64 {
	return percentOf(p.Snapshot())
}

func percentOf(saved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(saved) / float64(total) * 100
}

// formatPercent 进度条行尾显示的两位小数百分比
func formatPercent(saved, total int) string {
	return fmt.Sprintf("%.2f%%", percentOf(saved, total))
}

// Finish 结束进度条渲染
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
