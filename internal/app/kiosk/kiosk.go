// Package kiosk 把浏览器页面事件分派给各交互组件。
package kiosk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/John-Robertt/narvaro/internal/admin"
	"github.com/John-Robertt/narvaro/internal/attendance"
	"github.com/John-Robertt/narvaro/internal/browser"
	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/page"
	"github.com/John-Robertt/narvaro/internal/relay"
	"github.com/John-Robertt/narvaro/internal/ui"
)

// Page 是 kiosk 标签页对各组件暴露的能力（生产实现是 *browser.Kiosk）。
type Page interface {
	relay.StatusView
	relay.Field
	relay.Navigator
	admin.Confirmer
	admin.Submitter

	FocusPassword()
	SubmitLogin()
	ApplyMenu(s ui.MenuState)
	SetControl(id string, s ui.ControlState)
	FillOccurredAt(value string)
	HTML(ctx context.Context) ([]byte, error)
}

// Session 持有一个 kiosk 标签页上的全部交互状态。
type Session struct {
	page   Page
	relay  *relay.Relay
	marker *attendance.Marker
	admin  *admin.Dispatcher
	login  ui.LoginAdvance
	now    func() time.Time
	log    *slog.Logger

	mu   sync.Mutex
	menu ui.MenuState
	wg   sync.WaitGroup
}

// Deps 描述 Session 的依赖。Relay/Marker/Admin 为空时对应事件被忽略。
type Deps struct {
	Page   Page
	Relay  *relay.Relay
	Marker *attendance.Marker
	Admin  *admin.Dispatcher
	Now    func() time.Time
	Logger *slog.Logger
}

func New(d Deps) (*Session, error) {
	if d.Page == nil {
		return nil, errors.New("kiosk: page 不能为空")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Session{
		page:   d.Page,
		relay:  d.Relay,
		marker: d.Marker,
		admin:  d.Admin,
		login:  ui.NewLoginAdvance(),
		now:    d.Now,
		log:    d.Logger,
	}, nil
}

// Menu 返回当前菜单状态。
func (s *Session) Menu() ui.MenuState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menu
}

// Run 消费事件直到 ctx 结束或 events 关闭，并等待已发起的请求处理完。
//
// 扫描/出勤/管理操作涉及网络或人工确认，放到独立 goroutine；
// 菜单/登录/ready 只改页面状态，按到达顺序同步处理。
func (s *Session) Run(ctx context.Context, events <-chan browser.Event) {
	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Op {
			case browser.OpNFC, browser.OpMark, browser.OpAdmin:
				s.wg.Add(1)
				go func(ev browser.Event) {
					defer s.wg.Done()
					s.Handle(ctx, ev)
				}(ev)
			default:
				s.Handle(ctx, ev)
			}
		}
	}
}

// Handle 同步处理一个事件。
func (s *Session) Handle(ctx context.Context, ev browser.Event) {
	switch ev.Op {
	case browser.OpNFC:
		if s.relay != nil {
			s.relay.HandleInput(ctx, ev.Value)
		}
	case browser.OpLogin:
		s.onLogin(ev)
	case browser.OpMenu:
		s.onMenu(ev.Target)
	case browser.OpMark:
		s.onMark(ctx, ev)
	case browser.OpAdmin:
		s.onAdmin(ctx, ev)
	case browser.OpReady:
		s.onReady(ctx, ev.Path)
	default:
		s.log.Debug("kiosk: 忽略未知事件", "op", ev.Op)
	}
}

func (s *Session) onLogin(ev browser.Event) {
	var field ui.LoginField
	switch ev.Field {
	case "id":
		field = ui.FieldID
	case "password":
		field = ui.FieldPassword
	default:
		return
	}
	switch s.login.OnInput(s.page.CurrentPath(), field, ev.Value) {
	case ui.LoginFocusPassword:
		s.page.FocusPassword()
	case ui.LoginSubmit:
		s.log.Info("kiosk: 自动提交登录表单")
		s.page.SubmitLogin()
	}
}

func (s *Session) onMenu(target string) {
	var me ui.MenuEvent
	switch target {
	case "toggle":
		me = ui.MenuToggleClicked
	case "link":
		me = ui.MenuLinkClicked
	case "panel":
		me = ui.MenuPanelClicked
	case "outside":
		me = ui.MenuOutsideClicked
	default:
		return
	}

	s.mu.Lock()
	prev := s.menu
	s.menu = s.menu.Next(me)
	next := s.menu
	s.mu.Unlock()

	if next != prev {
		s.page.ApplyMenu(next)
	}
}

func (s *Session) onMark(ctx context.Context, ev browser.Event) {
	if s.marker == nil {
		return
	}
	ctl := control{page: s.page, id: ev.Ctl}
	if _, err := s.marker.Mark(ctx, ev.Alarm, ev.Dept, ctl, domain.AttendanceOptions{}); err != nil {
		s.log.Debug("kiosk: 出勤标记未成功", "alarm", ev.Alarm, "department", ev.Dept, "error", err)
	}
}

func (s *Session) onAdmin(ctx context.Context, ev browser.Event) {
	if s.admin == nil {
		return
	}
	var (
		a   admin.Action
		err error
	)
	switch ev.Fn {
	case "deleteUser":
		a, err = admin.DeleteUser(ev.Arg)
	case "revokeTag":
		a, err = admin.RevokeTag(ev.Arg)
	case "closeAlarm":
		a, err = admin.CloseAlarm(ev.Arg)
	default:
		s.log.Warn("kiosk: 未知管理操作", "fn", ev.Fn)
		return
	}
	if err != nil {
		s.log.Warn("kiosk: 管理操作参数无效", "fn", ev.Fn, "error", err)
		return
	}
	loc, sent, err := s.admin.Dispatch(ctx, a)
	if err != nil || !sent {
		return
	}
	// 页面内表单提交由浏览器跟随重定向；只有 HTTP 提交才会带回 location。
	if loc != "" {
		s.page.Navigate(loc)
	}
}

// onReady 在每个新文档加载后调用：菜单回到关闭态，补默认时间，并记录页面绑定情况。
func (s *Session) onReady(ctx context.Context, path string) {
	s.mu.Lock()
	s.menu = ui.MenuState{}
	s.mu.Unlock()

	s.page.FillOccurredAt(admin.DefaultOccurredAt(s.now()))

	html, err := s.page.HTML(ctx)
	if err != nil {
		s.log.Debug("kiosk: 读取页面失败", "error", err)
		return
	}
	b, err := page.Inspect(html)
	if err != nil {
		s.log.Debug("kiosk: 解析页面失败", "error", err)
		return
	}
	s.log.Info("kiosk: 页面就绪",
		"path", domain.CleanRoute(path),
		"title", b.Title,
		"nfc", b.NFCInput,
		"attendance", len(b.Attendance),
		"admin", len(b.Admin))
	if missing := b.Missing(domain.CleanRoute(path)); len(missing) > 0 {
		s.log.Debug("kiosk: 页面缺少约定元素", "missing", missing)
	}
}

// control 把 attendance.Control 落到页面上被点击的那个按钮。
type control struct {
	page Page
	id   string
}

func (c control) Set(st ui.ControlState) {
	if c.id == "" {
		return
	}
	c.page.SetControl(c.id, st)
}
