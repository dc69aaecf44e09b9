// Package relay 把读卡器输入转交给服务端，并把判定结果反映到页面上。
//
// 读卡器表现为键盘：把 UID 逐字“敲”进输入框，然后触发一次 change。
// relay 只依赖几个小接口，控制台与 kiosk 浏览器各自提供实现。
package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/width"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/infra/sched"
	"github.com/John-Robertt/narvaro/internal/ui"
)

// Scanner 负责把一次扫描提交给服务端（生产实现是 *api.Client）。
type Scanner interface {
	ScanNFC(ctx context.Context, attempt domain.ScanAttempt) (domain.Outcome, error)
}

// StatusView 是状态区域（#nfc-status / .nfc-status）。
type StatusView interface {
	ShowStatus(s ui.Status)
}

// Field 是扫描输入框（#nfc-input）。
type Field interface {
	Clear()
}

// Navigator 抽象页面导航。
type Navigator interface {
	CurrentPath() string
	Navigate(target string)
	Reload()
}

var (
	// ErrBusy 表示上一次扫描仍在进行中，本次输入被丢弃。
	ErrBusy = errors.New("relay 忙碌：上一次扫描尚未完成")
	// ErrEmptyUID 表示规范化之后输入为空。
	ErrEmptyUID = errors.New("uid 为空")
)

// Config 描述 Relay 的依赖。除 Scanner 外都可以为空：
// 页面上缺失的元素不报错，只是对应的效果不发生。
type Config struct {
	Scanner   Scanner
	Status    StatusView
	Field     Field
	Navigator Navigator
	Scheduler sched.Scheduler
	Observer  Observer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Relay 是扫描中继。
//
// 约束：
// - 同一时刻最多一个请求在途；在途期间的新输入被清空并记为 ignored
// - 每个分支结束时输入框都会被清空
// - 已调度的延迟导航不会被取消
type Relay struct {
	scanner Scanner
	status  StatusView
	field   Field
	nav     Navigator
	sched   sched.Scheduler
	obs     Observer
	log     *slog.Logger
	now     func() time.Time

	busy atomic.Bool
}

// New 按 cfg 构造 Relay。
func New(cfg Config) (*Relay, error) {
	if cfg.Scanner == nil {
		return nil, errors.New("relay: scanner 不能为空")
	}
	r := &Relay{
		scanner: cfg.Scanner,
		status:  cfg.Status,
		field:   cfg.Field,
		nav:     cfg.Navigator,
		sched:   cfg.Scheduler,
		obs:     cfg.Observer,
		log:     cfg.Logger,
		now:     cfg.Now,
	}
	if r.status == nil {
		r.status = nopView{}
	}
	if r.field == nil {
		r.field = nopView{}
	}
	if r.nav == nil {
		r.nav = nopView{}
	}
	if r.sched == nil {
		r.sched = sched.Real{}
	}
	if r.obs == nil {
		r.obs = nopObserver{}
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// NormalizeUID 去掉首尾空白，并把全角字符折叠为半角（部分输入法/键盘楔形读卡器会输出全角数字）。
func NormalizeUID(value string) string {
	return strings.TrimSpace(width.Fold.String(value))
}

// Busy 报告当前是否有请求在途。
func (r *Relay) Busy() bool { return r.busy.Load() }

// HandleInput 处理一次输入框 change 事件。返回 true 表示发起了请求。
//
// 空输入直接忽略（不清空、不发请求）；忙碌时清空输入框并记为 ignored。
func (r *Relay) HandleInput(ctx context.Context, value string) bool {
	uid := NormalizeUID(value)
	if uid == "" {
		return false
	}
	_, err := r.Submit(ctx, uid)
	if errors.Is(err, ErrBusy) {
		r.field.Clear()
		r.obs.OnIgnored(r.now())
		r.log.Debug("relay: 忙碌，丢弃输入")
		return false
	}
	return true
}

// Submit 提交一次扫描并完成全部页面效果，返回服务端判定。
//
// 传输失败时返回的 error 非空，同时页面已显示网络错误。
func (r *Relay) Submit(ctx context.Context, rawUID string) (domain.Outcome, error) {
	if rawUID == "" {
		return domain.Outcome{}, ErrEmptyUID
	}
	if !r.busy.CompareAndSwap(false, true) {
		return domain.Outcome{}, ErrBusy
	}
	defer r.busy.Store(false)

	attempt := domain.NewScanAttempt(rawUID, r.now())
	r.status.ShowStatus(ui.Scanning())
	r.obs.OnScanStart(attempt)

	rec := domain.ScanRecord{AttemptID: attempt.ID, At: attempt.StartedAt}

	out, err := r.scanner.ScanNFC(ctx, attempt)
	var re Reaction
	if err != nil {
		re = NetworkFailure()
		rec.Status = domain.ScanStatusNetwork
		r.log.Warn("relay: 扫描请求失败", "attempt", attempt.ID, "error", err)
	} else {
		re = React(out, r.nav.CurrentPath())
		rec.Status = out.Kind.String()
		rec.Result = out.Result
		rec.TagID = out.TagID
		rec.Reason = out.Reason
		r.log.Info("relay: 扫描完成", "attempt", attempt.ID, "result", out.Result)
	}

	r.status.ShowStatus(re.Status)
	if re.Nav != nil {
		r.schedule(*re.Nav)
		rec.Navigate = re.Nav.describe()
	}
	r.field.Clear()

	dur := r.now().Sub(attempt.StartedAt)
	rec.DurationMS = dur.Milliseconds()
	r.obs.OnScanDone(rec, dur)
	return out, err
}

func (r *Relay) schedule(nav Navigation) {
	r.sched.AfterFunc(nav.Delay, func() {
		if nav.Reload {
			r.nav.Reload()
		} else {
			r.nav.Navigate(nav.Target)
		}
		r.obs.OnNavigate(nav)
	})
}

type nopView struct{}

func (nopView) ShowStatus(ui.Status) {}

func (nopView) Clear() {}

func (nopView) CurrentPath() string { return domain.RouteRoot }

func (nopView) Navigate(string) {}

func (nopView) Reload() {}
