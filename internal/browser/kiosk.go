package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/ui"
)

const (
	navigateTimeout = 30 * time.Second
	evalTimeout     = 5 * time.Second
	eventBuffer     = 64
)

// Kiosk 是唯一的 kiosk 标签页：页面脚本 → Events()，Go → 页面适配器方法。
//
// 适配器方法对缺失元素静默跳过；CDP 调用失败只记日志（与页面上“什么也没发生”一致）。
type Kiosk struct {
	page   *rod.Page
	base   *url.URL
	log    *slog.Logger
	events chan Event
}

// OpenKiosk 新建标签页，注入页面脚本并打开 route。
//
// 服务端的 /static/app.js 会被拦截为空脚本：它的职责由注入脚本 + Go 侧组件接管。
func OpenKiosk(ctx context.Context, b *rod.Browser, baseURL, route string, logger *slog.Logger) (*Kiosk, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("browser: server 地址无效：%q", baseURL)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	k := &Kiosk{page: page, base: base, log: logger, events: make(chan Event, eventBuffer)}

	k.blockAppScript()

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}
	if _, err := page.EvalOnNewDocument(listenerJS); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: inject listener: %w", err)
	}
	go k.listen(ctx)

	if err := k.open(ctx, k.resolve(route)); err != nil {
		_ = page.Close()
		return nil, err
	}
	return k, nil
}

// Events 返回页面事件流；ctx 结束后不再有新事件。
func (k *Kiosk) Events() <-chan Event { return k.events }

// Close 关闭标签页。
func (k *Kiosk) Close() error { return k.page.Close() }

func (k *Kiosk) blockAppScript() {
	router := k.page.HijackRequests()
	router.MustAdd("*/static/app.js*", func(h *rod.Hijack) {
		h.Response.SetHeader("Content-Type", "application/javascript; charset=utf-8")
		h.Response.SetBody("")
	})
	go router.Run()
}

// listen 接收页面脚本经 Runtime.bindingCalled 发来的事件。
func (k *Kiosk) listen(ctx context.Context) {
	k.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		ev, err := DecodeEvent(e.Payload)
		if err != nil {
			k.log.Warn("browser: 丢弃无法解析的页面事件", "error", err)
			return
		}
		if ev.Op == OpReady {
			ev.Path = k.route(ev.Path)
		}
		select {
		case k.events <- ev:
		default:
			k.log.Warn("browser: 事件队列已满，丢弃事件", "op", ev.Op)
		}
	})()
}

func (k *Kiosk) open(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	p := k.page.Context(navCtx)
	if err := p.Navigate(target); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", target, err)
	}
	if err := p.WaitLoad(); err != nil {
		k.log.Warn("browser: wait load timeout", "url", target, "error", err)
	}
	return nil
}

func (k *Kiosk) resolve(target string) string {
	return domain.ResolveRoute(k.base, target)
}

// route 把页面地址还原为不含挂载前缀的路由。
func (k *Kiosk) route(raw string) string {
	return domain.RouteOf(k.base, raw)
}

func (k *Kiosk) eval(js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()
	return k.page.Context(ctx).Eval(js, args...)
}

func (k *Kiosk) run(name, js string, args ...interface{}) {
	if _, err := k.eval(js, args...); err != nil {
		k.log.Warn("browser: 页面操作失败", "op", name, "error", err)
	}
}

// ShowStatus 把状态渲染到 #nfc-status / .nfc-status。
func (k *Kiosk) ShowStatus(s ui.Status) { k.run("status", jsShowStatus, s.HTML()) }

// Clear 清空 #nfc-input 并把焦点还给它（读卡器需要焦点）。
func (k *Kiosk) Clear() { k.run("clear", jsClearInput) }

// CurrentPath 返回标签页当前的路由路径；取不到时按根路由处理。
func (k *Kiosk) CurrentPath() string {
	info, err := k.page.Info()
	if err != nil {
		k.log.Warn("browser: 读取当前地址失败", "error", err)
		return domain.RouteRoot
	}
	return k.route(info.URL)
}

// Navigate 打开 target（相对 server 解析）。
func (k *Kiosk) Navigate(target string) {
	if err := k.open(context.Background(), k.resolve(target)); err != nil {
		k.log.Warn("browser: 导航失败", "target", target, "error", err)
	}
}

// Reload 原地刷新当前页。
func (k *Kiosk) Reload() {
	if err := k.page.Reload(); err != nil {
		k.log.Warn("browser: 刷新失败", "error", err)
	}
}

func (k *Kiosk) FocusPassword() { k.run("focus_password", jsFocusPassword) }

func (k *Kiosk) SubmitLogin() { k.run("submit_login", jsSubmitLogin) }

// ApplyMenu 同步 .hamburger 与 .nav-links 的 active class。
func (k *Kiosk) ApplyMenu(s ui.MenuState) {
	on, _ := s.Classes()
	k.run("menu", jsApplyMenu, on)
}

// SetControl 更新由 markAttendance 标记过的按钮。
func (k *Kiosk) SetControl(id string, s ui.ControlState) {
	k.run("control", jsSetControl, id, s.Label, s.Class, s.Disabled)
}

// FillOccurredAt 在 #occurred_at 为空时填入 value。
func (k *Kiosk) FillOccurredAt(value string) { k.run("occurred_at", jsFillOccurredAt, value) }

// Confirm 弹出页面原生确认框，阻塞到操作者作答。
func (k *Kiosk) Confirm(ctx context.Context, prompt string) (bool, error) {
	res, err := k.page.Context(ctx).Eval(jsConfirm, prompt)
	if err != nil {
		return false, fmt.Errorf("browser: confirm: %w", err)
	}
	return res.Value.Bool(), nil
}

// SubmitForm 在页面里构造并提交一个真正的隐藏表单；重定向由浏览器跟随，因此 location 恒为空。
func (k *Kiosk) SubmitForm(ctx context.Context, req domain.FormRequest) (string, error) {
	if strings.TrimSpace(req.Path) == "" {
		return "", errors.New("browser: 表单路径不能为空")
	}
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	fields := req.Fields()
	pairs := make([][]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, []string{f[0], f[1]})
	}
	if _, err := k.page.Context(ctx).Eval(jsSubmitForm, method, k.resolve(req.Path), pairs); err != nil {
		return "", fmt.Errorf("browser: submit form: %w", err)
	}
	return "", nil
}

// HTML 返回当前文档的 outerHTML。
func (k *Kiosk) HTML(ctx context.Context) ([]byte, error) {
	res, err := k.page.Context(ctx).Eval(jsOuterHTML)
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return []byte(res.Value.Str()), nil
}

// SyncCookies 把标签页里的 cookie 写入 Go 侧 jar，使 HTTP 请求与页面共享登录会话。
func (k *Kiosk) SyncCookies(ctx context.Context, jar http.CookieJar, u *url.URL) error {
	if jar == nil || u == nil {
		return nil
	}
	cookies, err := k.page.Context(ctx).Cookies([]string{u.String()})
	if err != nil {
		return fmt.Errorf("browser: read cookies: %w", err)
	}
	jar.SetCookies(u, toHTTPCookies(cookies))
	return nil
}

// toHTTPCookies 只保留 name/value/path/secure/httponly：
// domain 交给 jar 按请求 URL 处理为 host-only。
func toHTTPCookies(in []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil || c.Name == "" {
			continue
		}
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out
}
