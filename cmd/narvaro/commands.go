package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/John-Robertt/narvaro/internal/admin"
	"github.com/John-Robertt/narvaro/internal/api"
	"github.com/John-Robertt/narvaro/internal/app/kiosk"
	"github.com/John-Robertt/narvaro/internal/app/session"
	"github.com/John-Robertt/narvaro/internal/attendance"
	"github.com/John-Robertt/narvaro/internal/browser"
	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/infra/fsx"
	"github.com/John-Robertt/narvaro/internal/infra/sched"
	"github.com/John-Robertt/narvaro/internal/page"
	"github.com/John-Robertt/narvaro/internal/relay"
	"github.com/John-Robertt/narvaro/internal/ui"
)

// errLoginFailed 表示服务端重新渲染了登录页（没有重定向）。
var errLoginFailed = errors.New("登录失败：ID 或密码错误")

func usageError(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, "参数错误："+format+"\n\n", args...)
	printUsage(os.Stderr)
	return 2
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// maybeLogin 在 --login 时先走一次控制台登录；会话 cookie 留在 client 的 jar 里。
func maybeLogin(ctx context.Context, ca cliArgs, client *api.Client, in *bufio.Reader, w io.Writer) int {
	if !ca.Login {
		return 0
	}
	if _, err := consoleLogin(ctx, client, in, w); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// scanCmd：stdin 每行是一次读卡器输入。
//
// 每行在独立 goroutine 中交给 relay，与浏览器里 change 事件互不等待的行为一致：
// 上一次请求未返回时到达的行会被丢弃并记为 ignored。
func scanCmd(ca cliArgs) int {
	if len(ca.Positional) > 0 {
		return usageError("scan 不接受位置参数：%q", ca.Positional)
	}
	eff, client, code := setup(ca)
	if code != 0 {
		return code
	}
	ctx, stop := signalContext()
	defer stop()

	in := bufio.NewReader(os.Stdin)
	progressW, interactive := pickProgressWriter()
	if code := maybeLogin(ctx, ca, client, in, progressW); code != 0 {
		return code
	}

	con := newConsoleUI(progressW, eff.Route)
	rec := session.NewRecorder(eff.ServerURL, nil)
	var obs relay.Observer = rec
	if interactive {
		obs = relay.Multi(rec, con)
		con.printHeader("scan", eff)
		con.startKeepalive()
		defer con.stopKeepalive()
	}

	tracked := &sched.Tracked{}
	r, err := relay.New(relay.Config{
		Scanner:   client,
		Status:    con,
		Field:     con,
		Navigator: con,
		Scheduler: tracked,
		Observer:  obs,
		Logger:    slog.Default(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 relay 失败：%v\n", err)
		return 1
	}

	var wg sync.WaitGroup
	for {
		line, err := readLine(ctx, in)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				slog.Warn("读取输入失败", "error", err)
			}
			break
		}
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			r.HandleInput(ctx, v)
		}(line)
	}
	wg.Wait()
	tracked.Wait()

	rep := rec.Report()
	emit(rep, reportSummary(rep))
	if err := writeReportFile(ca.ReportPath, rep); err != nil {
		fmt.Fprintf(os.Stderr, "写入报告失败：%v\n", err)
		return 1
	}
	if rep.Summary.Network > 0 {
		return 1
	}
	return 0
}

// writeReportFile 在 --report 指定时落盘；未指定时什么都不做。
func writeReportFile(path string, rep domain.SessionReport) error {
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(path, b)
}

func reportSummary(rep domain.SessionReport) string {
	s := rep.Summary
	return fmt.Sprintf("完成：success=%d ambiguous=%d rejected=%d network_error=%d ignored=%d",
		s.Success, s.Ambiguous, s.Rejected, s.Network, s.Ignored,
	)
}

// kioskCmd 启动浏览器并一直运行到收到 SIGINT/SIGTERM。
func kioskCmd(ca cliArgs) int {
	if len(ca.Positional) > 0 {
		return usageError("kiosk 不接受位置参数：%q", ca.Positional)
	}
	eff, client, code := setup(ca)
	if code != 0 {
		return code
	}
	ctx, stop := signalContext()
	defer stop()
	logger := slog.Default()

	mgr := browser.NewManager(browser.Config{
		RemoteURL: eff.Browser.Remote,
		Headless:  eff.Browser.Headless,
		Logger:    logger,
	})
	defer mgr.Close()

	b, err := mgr.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动浏览器失败：%v\n", err)
		return 1
	}
	tab, err := browser.OpenKiosk(ctx, b, client.BaseURL(), eff.Route, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "打开 kiosk 页面失败：%v\n", err)
		return 1
	}
	defer tab.Close()

	// 扫描与出勤走 Go 侧 HTTP，但要带上浏览器里的登录会话。
	shared := client.WithCookies(tab)

	progressW, interactive := pickProgressWriter()
	con := newConsoleUI(progressW, eff.Route)
	rec := session.NewRecorder(eff.ServerURL, nil)
	var obs relay.Observer = rec
	if interactive {
		obs = relay.Multi(rec, con)
		con.printHeader("kiosk", eff)
		con.startKeepalive()
		defer con.stopKeepalive()
	}

	// 延迟导航/恢复按钮要在 tab 关闭前跑完。
	tracked := &sched.Tracked{}
	r, err := relay.New(relay.Config{
		Scanner:   shared,
		Status:    tab,
		Field:     tab,
		Navigator: tab,
		Scheduler: tracked,
		Observer:  obs,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 relay 失败：%v\n", err)
		return 1
	}
	sess, err := kiosk.New(kiosk.Deps{
		Page:   tab,
		Relay:  r,
		Marker: &attendance.Marker{API: shared, Scheduler: tracked, Logger: logger},
		Admin:  &admin.Dispatcher{Confirmer: tab, Submitter: tab, Logger: logger},
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 kiosk 会话失败：%v\n", err)
		return 1
	}

	sess.Run(ctx, tab.Events())
	tracked.Wait()

	rep := rec.Report()
	emit(rep, reportSummary(rep))
	if err := writeReportFile(ca.ReportPath, rep); err != nil {
		fmt.Fprintf(os.Stderr, "写入报告失败：%v\n", err)
		return 1
	}
	return 0
}

type markOutput struct {
	Alarm      string `json:"alarm_id"`
	Department string `json:"department_id"`
	domain.AttendanceResult
}

func markCmd(ca cliArgs) int {
	if len(ca.Positional) != 2 {
		return usageError("mark 需要 <alarm-id> <department-id>")
	}
	eff, client, code := setup(ca)
	if code != 0 {
		return code
	}
	ctx, stop := signalContext()
	defer stop()

	in := bufio.NewReader(os.Stdin)
	progressW, _ := pickProgressWriter()
	if code := maybeLogin(ctx, ca, client, in, progressW); code != 0 {
		return code
	}

	opts := domain.AttendanceOptions{Comment: ca.Comment}
	if ca.ArrivalSet {
		v := ca.Arrival
		opts.ArrivalTime = &v
	}

	tracked := &sched.Tracked{}
	m := &attendance.Marker{API: client, Scheduler: tracked, Logger: slog.Default()}
	con := newConsoleUI(progressW, eff.Route)
	res, err := m.Mark(ctx, ca.Positional[0], ca.Positional[1], con, opts)
	tracked.Wait()

	out := markOutput{Alarm: ca.Positional[0], Department: ca.Positional[1], AttendanceResult: res}
	if err != nil {
		if out.Error == "" {
			out.Error = err.Error()
		}
		emit(out, "失败："+out.Error)
		return 1
	}
	if !res.Success {
		emit(out, "失败："+res.Error)
		return 1
	}
	emit(out, fmt.Sprintf("完成：alarm=%s department=%s", out.Alarm, out.Department))
	return 0
}

type adminOutput struct {
	Action   string   `json:"action"`
	ID       string   `json:"id"`
	Sent     bool     `json:"sent"`
	Location string   `json:"location,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Error    string   `json:"error,omitempty"`
}

var adminActions = map[string]func(string) (admin.Action, error){
	"delete-user": admin.DeleteUser,
	"revoke-tag":  admin.RevokeTag,
	"close-alarm": admin.CloseAlarm,
}

func adminCmd(ca cliArgs) int {
	if len(ca.Positional) != 2 {
		return usageError("admin 需要 <delete-user|revoke-tag|close-alarm> <id>")
	}
	build, ok := adminActions[ca.Positional[0]]
	if !ok {
		return usageError("未知管理操作 %q", ca.Positional[0])
	}
	a, err := build(ca.Positional[1])
	if err != nil {
		return usageError("%v", err)
	}

	_, client, code := setup(ca)
	if code != 0 {
		return code
	}
	ctx, stop := signalContext()
	defer stop()

	in := bufio.NewReader(os.Stdin)
	progressW, _ := pickProgressWriter()
	if code := maybeLogin(ctx, ca, client, in, progressW); code != 0 {
		return code
	}

	d := &admin.Dispatcher{
		Confirmer: &lineConfirmer{in: in, out: os.Stderr, yes: ca.Yes},
		Submitter: client,
		Logger:    slog.Default(),
	}
	loc, sent, err := d.Dispatch(ctx, a)
	out := adminOutput{Action: a.Name, ID: ca.Positional[1], Sent: sent, Location: loc}
	if err != nil {
		out.Error = err.Error()
		emit(out, "失败："+out.Error)
		return 1
	}
	if !sent {
		emit(out, "已取消")
		return 0
	}

	// 服务端把结果写在重定向后的页面上（flash/error）。
	if loc != "" {
		if html, _, err := client.FetchPage(ctx, loc); err == nil {
			if b, err := page.Inspect(html); err == nil {
				out.Messages = b.Messages
			}
		} else {
			slog.Debug("读取重定向页面失败", "location", loc, "error", err)
		}
	}
	summary := "已提交：" + a.Name
	if len(out.Messages) > 0 {
		summary += "（" + strings.Join(out.Messages, "；") + "）"
	}
	emit(out, summary)
	return 0
}

type loginOutput struct {
	Server   string `json:"server"`
	LoggedIn bool   `json:"logged_in"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

func loginCmd(ca cliArgs) int {
	if len(ca.Positional) > 0 {
		return usageError("login 不接受位置参数：%q", ca.Positional)
	}
	eff, client, code := setup(ca)
	if code != 0 {
		return code
	}
	ctx, stop := signalContext()
	defer stop()

	progressW, _ := pickProgressWriter()
	if progressW == io.Discard {
		progressW = os.Stderr
	}
	loc, err := consoleLogin(ctx, client, bufio.NewReader(os.Stdin), progressW)
	out := loginOutput{Server: eff.ServerURL, LoggedIn: err == nil, Location: loc}
	if err != nil {
		out.Error = err.Error()
		emit(out, out.Error)
		return 1
	}
	emit(out, "已登录 → "+loc)
	return 0
}

// consoleLogin 在终端上模拟登录页：ID 满 4 位跳到密码，密码满 4 位提交。
// 长度不足时仍然提交，由服务端判定。
func consoleLogin(ctx context.Context, client *api.Client, in *bufio.Reader, w io.Writer) (string, error) {
	adv := ui.NewLoginAdvance()
	route := domain.RouteRoot

	fmt.Fprint(w, "ID: ")
	id, err := readLine(ctx, in)
	if err != nil {
		return "", fmt.Errorf("读取 ID 失败：%w", err)
	}
	id = strings.TrimSpace(id)
	if adv.OnInput(route, ui.FieldID, id) != ui.LoginFocusPassword {
		fmt.Fprintf(w, "（ID 通常为 %d 位）\n", ui.CredentialLength)
	}

	fmt.Fprint(w, "Lösenord: ")
	pw, err := readLine(ctx, in)
	if err != nil {
		return "", fmt.Errorf("读取密码失败：%w", err)
	}
	pw = strings.TrimSpace(pw)
	if adv.OnInput(route, ui.FieldPassword, pw) != ui.LoginSubmit {
		fmt.Fprintf(w, "（密码通常为 %d 位）\n", ui.CredentialLength)
	}

	loc, err := client.Login(ctx, id, pw)
	if err != nil {
		return "", err
	}
	if loc == "" {
		return "", errLoginFailed
	}
	return loc, nil
}

type checkOutput struct {
	URL      string        `json:"url"`
	Route    string        `json:"route"`
	Bindings page.Bindings `json:"bindings"`
	Missing  []string      `json:"missing"`
	Error    string        `json:"error,omitempty"`
}

// checkCmd 读取一个页面并报告交互层能绑定到哪些元素。
func checkCmd(ca cliArgs) int {
	if len(ca.Positional) > 1 {
		return usageError("check 最多接受一个 route")
	}
	eff, client, code := setup(ca)
	if code != 0 {
		return code
	}
	ctx, stop := signalContext()
	defer stop()

	progressW, _ := pickProgressWriter()
	if code := maybeLogin(ctx, ca, client, bufio.NewReader(os.Stdin), progressW); code != 0 {
		return code
	}

	route := eff.Route
	if len(ca.Positional) == 1 {
		route = ca.Positional[0]
	}
	route = domain.CleanRoute(route)

	out := checkOutput{Route: route, Missing: []string{}}
	html, u, err := client.FetchPage(ctx, route)
	out.URL = u
	if err != nil {
		out.Error = err.Error()
		emit(out, "失败："+out.Error)
		return 1
	}
	b, err := page.Inspect(html)
	if err != nil {
		out.Error = err.Error()
		emit(out, "失败："+out.Error)
		return 1
	}
	out.Bindings = b
	if m := b.Missing(route); len(m) > 0 {
		out.Missing = m
	}

	summary := fmt.Sprintf("%s：nfc=%s login=%s menu=%s attendance=%d admin=%d",
		route, onOff(b.NFCInput), onOff(b.Login), onOff(b.Menu), len(b.Attendance), len(b.Admin),
	)
	if len(out.Missing) > 0 {
		summary += "\n缺少：" + strings.Join(out.Missing, ", ")
		emit(out, summary)
		return 1
	}
	emit(out, summary)
	return 0
}
