package relay

import (
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// Observer 把扫描生命周期事件从 relay 中解耦出来（控制台输出 / 会话报告）。
//
// 约束：
// - relay 只发事件，不做任何输出（stdout 留给会话报告）。
// - 实现必须并发安全：事件可能来自输入 goroutine 与定时器 goroutine。
type Observer interface {
	// OnScanStart 在请求发出之前调用。
	OnScanStart(attempt domain.ScanAttempt)
	// OnScanDone 在结果处理完（状态已显示、输入框已清空）之后调用。
	OnScanDone(rec domain.ScanRecord, dur time.Duration)
	// OnIgnored 在 relay 忙碌时丢弃输入时调用。
	OnIgnored(at time.Time)
	// OnNavigate 在延迟导航真正执行时调用。
	OnNavigate(nav Navigation)
}

type nopObserver struct{}

func (nopObserver) OnScanStart(domain.ScanAttempt) {}

func (nopObserver) OnScanDone(domain.ScanRecord, time.Duration) {}

func (nopObserver) OnIgnored(time.Time) {}

func (nopObserver) OnNavigate(Navigation) {}

// Multi 把事件依次转发给多个 Observer（nil 会被跳过）。
func Multi(obs ...Observer) Observer {
	out := make(multi, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multi []Observer

func (m multi) OnScanStart(a domain.ScanAttempt) {
	for _, o := range m {
		o.OnScanStart(a)
	}
}

func (m multi) OnScanDone(rec domain.ScanRecord, dur time.Duration) {
	for _, o := range m {
		o.OnScanDone(rec, dur)
	}
}

func (m multi) OnIgnored(at time.Time) {
	for _, o := range m {
		o.OnIgnored(at)
	}
}

func (m multi) OnNavigate(nav Navigation) {
	for _, o := range m {
		o.OnNavigate(nav)
	}
}
