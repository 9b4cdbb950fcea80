package crawlers

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/RecoveryAshes/webmirror/internal/utils"
)

// Prompter 交互确认
type Prompter interface {
	// Confirm 提问并返回用户是否同意
	Confirm(question string) (bool, error)
}

// gateRequest 页面worker发给暂停闸门的询问
type gateRequest struct {
	saved int
	reply chan bool
}

// PauseGate 每保存N个文件询问一次是否继续
// 所有交互输入都由Run所在的goroutine独占, worker只通过channel询问
// 一旦用户拒绝, 闸门保持关闭, 之后的Allow全部返回false
type PauseGate struct {
	every    int
	prompter Prompter
	requests chan gateRequest
	declined atomic.Bool
}

// NewPauseGate 创建暂停闸门, every<=0或prompter为nil时永远放行
func NewPauseGate(every int, prompter Prompter) *PauseGate {
	return &PauseGate{
		every:    every,
		prompter: prompter,
		requests: make(chan gateRequest),
	}
}

// enabled 是否需要交互
func (g *PauseGate) enabled() bool {
	return g != nil && g.every > 0 && g.prompter != nil
}

// Run 处理询问直到ctx结束
func (g *PauseGate) Run(ctx context.Context) {
	if !g.enabled() {
		return
	}

	lastMark := 0

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-g.requests:
			if g.declined.Load() {
				req.reply <- false
				continue
			}

			mark := req.saved / g.every
			if req.saved > 0 && mark > lastMark {
				lastMark = mark
				question := fmt.Sprintf("已保存 %d 个文件, 是否继续? (yes/y/no): ", req.saved)
				ok, err := g.prompter.Confirm(question)
				if err != nil {
					utils.Warnf("读取用户输入失败, 停止爬取: %v", err)
				}
				if err != nil || !ok {
					utils.Infof("⏹️  用户选择停止, 不再展开新页面")
					g.declined.Store(true)
					req.reply <- false
					continue
				}
			}
			req.reply <- true
		}
	}
}

// Allow 询问当前分支是否可以继续展开
// saved为当前已保存文件总数
func (g *PauseGate) Allow(ctx context.Context, saved int) bool {
	if !g.enabled() {
		return true
	}

	reply := make(chan bool, 1)
	select {
	case g.requests <- gateRequest{saved: saved, reply: reply}:
	case <-ctx.Done():
		return false
	}

	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

// Declined 用户是否已选择停止
func (g *PauseGate) Declined() bool {
	return g != nil && g.declined.Load()
}
