package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/narvaro/internal/config"
	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/relay"
	"github.com/John-Robertt/narvaro/internal/ui"
)

var (
	_ relay.Observer   = (*consoleUI)(nil)
	_ relay.StatusView = (*consoleUI)(nil)
	_ relay.Navigator  = (*consoleUI)(nil)
)

// consoleUI 是控制台模式下的“页面”：状态区、输入框、导航都落在终端上。
//
// 约束：
// - 所有输出写到 stderr（或 fallback 到 stdout），不污染 stdout 的会话报告
// - 导航只改变内存中的当前路由（影响 success 后是跳 /home 还是原地刷新）
// - keepalive：长时间没有扫描时定期输出一行，确认进程仍在等待
type consoleUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time
	path        string

	scans   int
	ok      int
	warn    int
	fail    int
	ignored int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newConsoleUI(w io.Writer, route string) *consoleUI {
	now := time.Now()
	return &consoleUI{
		w:                  w,
		startedAt:          now,
		lastPrinted:        now,
		path:               domain.CleanRoute(route),
		keepaliveThreshold: 60 * time.Second,
		tickerInterval:     10 * time.Second,
	}
}

// printHeader 输出生效配置（只在交互终端调用）。
func (c *consoleUI) printHeader(mode string, eff config.EffectiveConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "[%s] narvaro %s\n", time.Now().Format("15:04:05"), mode)
	fmt.Fprintln(c.w, "配置（生效）:")
	if eff.ConfigFile != "" {
		fmt.Fprintf(c.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintf(c.w, "  server: %s\n", eff.ServerURL)
	fmt.Fprintf(c.w, "  route: %s\n", eff.Route)
	fmt.Fprintf(c.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(c.w, "  timeout: %s\n", eff.RequestTimeout)
	if mode == "kiosk" {
		remote := eff.Browser.Remote
		if remote == "" {
			remote = "local"
		}
		fmt.Fprintf(c.w, "  browser: %s headless=%s\n", truncate(remote, 80), onOff(eff.Browser.Headless))
	}
	fmt.Fprintln(c.w)
	c.lastPrinted = time.Now()
}

func (c *consoleUI) ShowStatus(s ui.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Kind == ui.StatusScanning {
		return
	}
	fmt.Fprintf(c.w, "  %s\n", s.Text)
	c.lastPrinted = time.Now()
}

// Clear 对应清空输入框：控制台每行一次输入，无需处理。
func (c *consoleUI) Clear() {}

func (c *consoleUI) CurrentPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

func (c *consoleUI) Navigate(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = domain.CleanRoute(target)
}

func (c *consoleUI) Reload() {}

func (c *consoleUI) OnScanStart(domain.ScanAttempt) {}

func (c *consoleUI) OnScanDone(rec domain.ScanRecord, dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scans++
	var status string
	switch rec.Status {
	case domain.ScanStatusSuccess:
		c.ok++
		status = "OK"
	case domain.ScanStatusAmbiguous:
		c.warn++
		status = "MULTI"
	case domain.ScanStatusNetwork:
		c.fail++
		status = "NET"
	default:
		c.fail++
		status = "FAIL"
	}

	line := fmt.Sprintf("[%s] #%d %s", rec.At.Local().Format("15:04:05"), c.scans, status)
	if rec.Result != "" {
		line += " result=" + rec.Result
	}
	if rec.TagID != "" {
		line += " tag=" + rec.TagID
	}
	if rec.Reason != "" {
		line += " reason=" + truncate(rec.Reason, 80)
	}
	if rec.Navigate != "" {
		line += " nav=" + rec.Navigate
	}
	fmt.Fprintf(c.w, "%s (%s)\n", line, formatShortDuration(dur))
	c.lastPrinted = time.Now()
}

func (c *consoleUI) OnIgnored(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignored++
	fmt.Fprintf(c.w, "[%s] IGNORED（上一次扫描尚未完成）\n", at.Local().Format("15:04:05"))
	c.lastPrinted = time.Now()
}

func (c *consoleUI) OnNavigate(nav relay.Navigation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if nav.Reload {
		fmt.Fprintf(c.w, "  ↻ %s\n", c.path)
	} else {
		fmt.Fprintf(c.w, "  → %s\n", nav.Target)
	}
	c.lastPrinted = time.Now()
}

// Set 让 consoleUI 充当出勤按钮。
func (c *consoleUI) Set(s ui.ControlState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "  [%s] %s\n", s.Class, s.Label)
	c.lastPrinted = time.Now()
}

func (c *consoleUI) startKeepalive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickerStarted {
		return
	}
	c.stopCh = make(chan struct{})
	c.tickerStarted = true

	interval := c.tickerInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	threshold := c.keepaliveThreshold
	if threshold <= 0 {
		threshold = 60 * time.Second
	}
	stop := c.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.mu.Lock()
				if time.Since(c.lastPrinted) > threshold {
					fmt.Fprintf(c.w, "等待扫描: scans=%d ok=%d multi=%d fail=%d ignored=%d elapsed=%s\n",
						c.scans, c.ok, c.warn, c.fail, c.ignored, formatElapsed(time.Since(c.startedAt)),
					)
					c.lastPrinted = time.Now()
				}
				c.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (c *consoleUI) stopKeepalive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickerStarted {
		close(c.stopCh)
		c.tickerStarted = false
	}
}

// lineConfirmer 在终端上询问 y/N。
type lineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func (c *lineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.yes {
		fmt.Fprintf(c.out, "%s [y/N] y (--yes)\n", prompt)
		return true, nil
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, err := readLine(ctx, c.in)
	if err != nil {
		return false, err
	}
	return isYes(line), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "j", "ja":
		return true
	default:
		return false
	}
}

// readLine 读取一行（去掉行尾换行）；ctx 结束时立即返回。
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type result struct {
		s   string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := in.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		ch <- result{strings.TrimRight(s, "\r\n"), err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if errors.Is(r.err, io.EOF) {
			return "", io.EOF
		}
		return r.s, r.err
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
