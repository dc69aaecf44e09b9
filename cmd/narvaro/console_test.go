package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/relay"
	"github.com/John-Robertt/narvaro/internal/ui"
)

func TestConsoleUI_Navigation(t *testing.T) {
	c := newConsoleUI(io.Discard, "")
	if c.CurrentPath() != "/" {
		t.Fatalf("期望初始路由 /，实际 %q", c.CurrentPath())
	}
	c.Navigate("/nfc/department-selection?tag_id=7")
	if c.CurrentPath() != "/nfc/department-selection" {
		t.Fatalf("期望只保留 path，实际 %q", c.CurrentPath())
	}
}

func TestConsoleUI_ScanLines(t *testing.T) {
	var buf bytes.Buffer
	c := newConsoleUI(&buf, "/home")

	c.ShowStatus(ui.Scanning())
	if buf.Len() != 0 {
		t.Fatalf("扫描中状态不应输出，实际 %q", buf.String())
	}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.OnScanDone(domain.ScanRecord{At: at, Status: domain.ScanStatusAmbiguous, Result: "ambiguous", TagID: "7", Navigate: "/nfc/department-selection?tag_id=7"}, 1500*time.Millisecond)
	c.OnScanDone(domain.ScanRecord{At: at, Status: domain.ScanStatusRejected, Result: "denied", Reason: "No active alarms"}, 0)
	c.OnIgnored(at)
	c.OnNavigate(relay.Navigation{Target: "/home"})

	out := buf.String()
	for _, want := range []string{"#1 MULTI", "tag=7", "(1.5s)", "#2 FAIL", "reason=No active alarms", "IGNORED", "→ /home"} {
		if !strings.Contains(out, want) {
			t.Fatalf("期望输出包含 %q，实际 %q", want, out)
		}
	}
	if c.warn != 1 || c.fail != 1 || c.ignored != 1 {
		t.Fatalf("计数不符合预期：warn=%d fail=%d ignored=%d", c.warn, c.fail, c.ignored)
	}
}

func TestConsoleUI_ControlState(t *testing.T) {
	var buf bytes.Buffer
	c := newConsoleUI(&buf, "/")
	c.Set(ui.ControlMarked())
	if !strings.Contains(buf.String(), ui.TextMarked) {
		t.Fatalf("期望输出按钮文字 %q，实际 %q", ui.TextMarked, buf.String())
	}
}

func TestLineConfirmer(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"Ja\n":  true,
		"yes\n": true,
		"n\n":   false,
		"\n":    false,
		"nej\n": false,
		"  j  ": true,
	}
	for in, want := range cases {
		var out bytes.Buffer
		c := &lineConfirmer{in: bufio.NewReader(strings.NewReader(in)), out: &out}
		got, err := c.Confirm(context.Background(), "Är du säker?")
		if err != nil {
			t.Fatalf("输入 %q 不期望错误：%v", in, err)
		}
		if got != want {
			t.Fatalf("输入 %q 期望 %v，实际 %v", in, want, got)
		}
		if !strings.Contains(out.String(), "Är du säker? [y/N]") {
			t.Fatalf("期望输出提示，实际 %q", out.String())
		}
	}
}

func TestLineConfirmer_YesAndEOF(t *testing.T) {
	c := &lineConfirmer{in: bufio.NewReader(strings.NewReader("")), out: io.Discard, yes: true}
	ok, err := c.Confirm(context.Background(), "?")
	if err != nil || !ok {
		t.Fatalf("--yes 应直接确认，实际 ok=%v err=%v", ok, err)
	}

	c = &lineConfirmer{in: bufio.NewReader(strings.NewReader("")), out: io.Discard}
	if _, err := c.Confirm(context.Background(), "?"); !errors.Is(err, io.EOF) {
		t.Fatalf("期望 io.EOF，实际 %v", err)
	}
}

func TestReadLine_CanceledContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := readLine(ctx, bufio.NewReader(pr)); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际 %v", err)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatProxy(""); got != "off" {
		t.Fatalf("期望 off，实际 %q", got)
	}
	if got := formatProxy("http://u:p@proxy.local:3128"); got != "on (http://proxy.local:3128, auth=on)" {
		t.Fatalf("代理格式不符合预期：%q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("期望 abc...，实际 %q", got)
	}
	if got := truncate("åäö", 5); got != "åäö" {
		t.Fatalf("短字符串不应截断，实际 %q", got)
	}
	if got := formatElapsed(3725 * time.Second); got != "01:02:05" {
		t.Fatalf("期望 01:02:05，实际 %q", got)
	}
	if got := formatShortDuration(-time.Second); got != "0.0s" {
		t.Fatalf("期望 0.0s，实际 %q", got)
	}
}
