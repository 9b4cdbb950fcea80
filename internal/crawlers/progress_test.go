package crawlers

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestProgress(t *testing.T) {
	p := NewProgress(nil)
	if p.Percent() != 0 {
		t.Errorf("没有目标时Percent() = %v", p.Percent())
	}

	for i := 0; i < 3; i++ {
		p.AddTarget()
	}
	p.RecordSave()
	if n := p.RecordSave(); n != 2 {
		t.Errorf("RecordSave() = %d, want 2", n)
	}

	saved, total := p.Snapshot()
	if saved != 2 || total != 3 {
		t.Errorf("Snapshot() = (%d, %d), want (2, 3)", saved, total)
	}
	if math.Abs(p.Percent()-66.666) > 0.01 {
		t.Errorf("Percent() = %v", p.Percent())
	}
	p.Finish()
}

func TestProgress_RendersBar(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out)

	p.AddTarget()
	p.AddTarget()
	p.RecordSave()
	p.RecordSave()
	p.Finish()

	if out.Len() == 0 {
		t.Error("进度条应有输出")
	}
}

func TestProgress_TwoDecimalPercent(t *testing.T) {
	tests := []struct {
		name    string
		targets int
		saves   int
		want    string
	}{
		{name: "三分之二", targets: 3, saves: 2, want: "66.67%"},
		{name: "七分之一", targets: 7, saves: 1, want: "14.29%"},
		{name: "全部完成", targets: 4, saves: 4, want: "100.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPercent(tt.saves, tt.targets); got != tt.want {
				t.Errorf("formatPercent(%d, %d) = %q, want %q", tt.saves, tt.targets, got, tt.want)
			}

			var out bytes.Buffer
			p := NewProgress(&out)
			for i := 0; i < tt.targets; i++ {
				p.AddTarget()
			}
			for i := 0; i < tt.saves; i++ {
				p.RecordSave()
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("进度条输出应包含 %q, 得到 %q", tt.want, out.String())
			}
			if !strings.Contains(out.String(), "[#") {
				t.Errorf("进度条输出应包含 [###---] 形式的进度条, 得到 %q", out.String())
			}
		})
	}
}

func TestFormatPercent_NoTargets(t *testing.T) {
	if got := formatPercent(0, 0); got != "0.00%" {
		t.Errorf("formatPercent(0, 0) = %q", got)
	}
}

func TestProgress_ContinuesAfterReachingTotal(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out)

	p.AddTarget()
	p.RecordSave()
	out.Reset()

	p.AddTarget()
	p.AddTarget()
	p.RecordSave()
	if !strings.Contains(out.String(), "66.67%") {
		t.Errorf("新增目标后进度条应继续渲染, 得到 %q", out.String())
	}
}
