package crawlers

import (
	"fmt"
	"sync"

	"github.com/RecoveryAshes/webmirror/internal/models"
)

// VisitedSet 已分派URL集合
// URL在发起请求之前写入, 且永不移除
type VisitedSet struct {
	mu   sync.RWMutex
	urls map[string]struct{}
}

// NewVisitedSet 创建空集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// TryMark 检查并标记URL, 首次标记返回true
// 检查与写入在同一把锁内完成, 并发发现同一URL时只有一方成功
func (v *VisitedSet) TryMark(urlStr string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.urls[urlStr]; ok {
		return false
	}
	v.urls[urlStr] = struct{}{}
	return true
}

// IsVisited 检查URL是否已分派
func (v *VisitedSet) IsVisited(urlStr string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.urls[urlStr]
	return ok
}

// Len 返回已分派URL数量
func (v *VisitedSet) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.urls)
}

// URLQueue 待展开页面队列(爬取前沿)
// 职责: 保存待处理页面, 统计处理中的页面, 队列为空且无处理中页面时结束
type URLQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	// 待处理页面 (FIFO)
	pending []models.URLItem

	// 已Pop但尚未Done的页面数
	inFlight int

	// 最大深度, 0表示不限制
	maxDepth int

	// 队列是否已关闭
	closed bool
}

// NewURLQueue 创建URL队列实例
func NewURLQueue(maxDepth int) *URLQueue {
	q := &URLQueue{maxDepth: maxDepth}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push 添加页面到队列
func (q *URLQueue) Push(item models.URLItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("队列已关闭")
	}
	if q.maxDepth > 0 && item.Depth > q.maxDepth {
		return fmt.Errorf("深度超过限制: %d > %d", item.Depth, q.maxDepth)
	}

	q.pending = append(q.pending, item)
	q.cond.Signal()
	return nil
}

// Pop 取出下一个待展开页面
// 队列为空时阻塞, 直到有新页面、全部处理完成或队列关闭
// 第二个返回值为false表示不再有工作
func (q *URLQueue) Pop() (models.URLItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) == 0 && q.inFlight > 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed || len(q.pending) == 0 {
		return models.URLItem{}, false
	}

	item := q.pending[0]
	q.pending[0] = models.URLItem{}
	q.pending = q.pending[1:]
	q.inFlight++
	return item, true
}

// Done 标记一个Pop出的页面处理完毕
func (q *URLQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.inFlight--
	if q.inFlight == 0 && len(q.pending) == 0 {
		// 唤醒所有等待者, 让它们退出
		q.cond.Broadcast()
	}
}

// PendingCount 返回当前待处理页面数量
func (q *URLQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close 关闭队列, 阻塞中的Pop立即返回
func (q *URLQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}
