package crawlers

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakePrompter 记录提问并按预设回答
type fakePrompter struct {
	mu        sync.Mutex
	answers   []bool
	err       error
	questions []string
}

func (p *fakePrompter) Confirm(question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.questions = append(p.questions, question)
	if p.err != nil {
		return false, p.err
	}
	if len(p.answers) == 0 {
		return true, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *fakePrompter) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.questions)
}

// runGate 启动闸门并在测试结束时停止
func runGate(t *testing.T, gate *PauseGate) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gate.Run(ctx)
	return ctx
}

func TestPauseGate_Disabled(t *testing.T) {
	ctx := context.Background()

	if !NewPauseGate(0, &fakePrompter{}).Allow(ctx, 100) {
		t.Error("every=0 时应始终放行")
	}
	if !NewPauseGate(5, nil).Allow(ctx, 100) {
		t.Error("prompter为nil时应始终放行")
	}
	var nilGate *PauseGate
	if !nilGate.Allow(ctx, 1) || nilGate.Declined() {
		t.Error("nil闸门应始终放行")
	}
}

func TestPauseGate_PromptsAtMultiples(t *testing.T) {
	prompter := &fakePrompter{}
	gate := NewPauseGate(2, prompter)
	ctx := runGate(t, gate)

	steps := []struct {
		saved     int
		wantCalls int
	}{
		{1, 0},
		{2, 1},
		{3, 1},
		{2, 1}, // 同一倍数只询问一次
		{5, 2},
		{6, 3},
	}

	for _, s := range steps {
		if !gate.Allow(ctx, s.saved) {
			t.Fatalf("Allow(%d) 应放行", s.saved)
		}
		if prompter.calls() != s.wantCalls {
			t.Errorf("Allow(%d) 后询问次数 = %d, want %d", s.saved, prompter.calls(), s.wantCalls)
		}
	}

	if prompter.questions[0] != "已保存 2 个文件, 是否继续? (yes/y/no): " {
		t.Errorf("提问内容 = %q", prompter.questions[0])
	}
}

func TestPauseGate_DeclineLatches(t *testing.T) {
	prompter := &fakePrompter{answers: []bool{false}}
	gate := NewPauseGate(1, prompter)
	ctx := runGate(t, gate)

	if gate.Allow(ctx, 1) {
		t.Fatal("用户拒绝后应返回false")
	}
	if !gate.Declined() {
		t.Error("Declined() 应为true")
	}

	// 之后不再询问, 全部拒绝
	for _, saved := range []int{1, 2, 10} {
		if gate.Allow(ctx, saved) {
			t.Errorf("Allow(%d) 在拒绝后应返回false", saved)
		}
	}
	if prompter.calls() != 1 {
		t.Errorf("询问次数 = %d, want 1", prompter.calls())
	}
}

func TestPauseGate_InputError(t *testing.T) {
	gate := NewPauseGate(1, &fakePrompter{err: errors.New("stdin closed")})
	ctx := runGate(t, gate)

	if gate.Allow(ctx, 1) {
		t.Error("读取输入失败时应停止")
	}
	if !gate.Declined() {
		t.Error("Declined() 应为true")
	}
}

func TestPauseGate_ConcurrentCallers(t *testing.T) {
	prompter := &fakePrompter{}
	gate := NewPauseGate(3, prompter)
	ctx := runGate(t, gate)

	var wg sync.WaitGroup
	for i := 1; i <= 30; i++ {
		wg.Add(1)
		go func(saved int) {
			defer wg.Done()
			gate.Allow(ctx, saved)
		}(i)
	}
	wg.Wait()

	// 询问由单个goroutine串行处理, 最多每个倍数一次
	if n := prompter.calls(); n < 1 || n > 10 {
		t.Errorf("询问次数 = %d, 期望在 [1, 10]", n)
	}
}

func TestPauseGate_ContextDone(t *testing.T) {
	gate := NewPauseGate(1, &fakePrompter{})

	// Run未启动, ctx取消后Allow不应阻塞
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if gate.Allow(ctx, 1) {
		t.Error("ctx取消后应返回false")
	}
}
