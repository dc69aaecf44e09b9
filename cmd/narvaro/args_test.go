package main

import (
	"strings"
	"testing"
)

func TestParseArgs_ValueFlagsBothForms(t *testing.T) {
	a, err := parseArgs([]string{"--server", "http://kiosk.test", "--route=/home", "--log-level", "DEBUG", "alarm-1", "3"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !a.ServerSet || a.Server != "http://kiosk.test" {
		t.Fatalf("期望 server=http://kiosk.test，实际 %+v", a)
	}
	if !a.RouteSet || a.Route != "/home" {
		t.Fatalf("期望 route=/home，实际 %+v", a)
	}
	if a.LogLevel != "debug" {
		t.Fatalf("期望 log-level 归一为小写，实际 %q", a.LogLevel)
	}
	if strings.Join(a.Positional, ",") != "alarm-1,3" {
		t.Fatalf("期望位置参数 alarm-1,3，实际 %v", a.Positional)
	}
}

func TestParseArgs_BoolFlags(t *testing.T) {
	a, err := parseArgs([]string{"--headless", "-y", "--login=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !a.Headless || !a.HeadlessSet || !a.Yes || a.Login {
		t.Fatalf("bool 参数解析不符合预期：%+v", a)
	}

	a, err = parseArgs([]string{"--headless=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if a.Headless || !a.HeadlessSet {
		t.Fatalf("--headless=false 应显式关闭，实际 %+v", a)
	}

	if _, err := parseArgs([]string{"--yes=maybe"}); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestParseArgs_Arrival(t *testing.T) {
	a, err := parseArgs([]string{"--arrival", "0", "--comment", "på väg"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !a.ArrivalSet || a.Arrival != 0 {
		t.Fatalf("--arrival 0 应视为显式指定，实际 %+v", a)
	}
	if a.Comment != "på väg" {
		t.Fatalf("期望 comment=på väg，实际 %q", a.Comment)
	}

	for _, v := range []string{"-1", "soon", ""} {
		if _, err := parseArgs([]string{"--arrival=" + v}); err == nil {
			t.Fatalf("--arrival=%q 期望错误", v)
		}
	}
}

func TestParseArgs_Errors(t *testing.T) {
	cases := [][]string{
		{"--server"},
		{"--server="},
		{"--log-level", "trace"},
		{"--unknown"},
		{"--report="},
	}
	for _, c := range cases {
		if _, err := parseArgs(c); err == nil {
			t.Fatalf("%v 期望错误，但得到 nil", c)
		}
	}
}

func TestParseArgs_DoubleDashEndsFlags(t *testing.T) {
	a, err := parseArgs([]string{"--", "--not-a-flag", "-"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(a.Positional) != 2 || a.Positional[0] != "--not-a-flag" || a.Positional[1] != "-" {
		t.Fatalf("期望 -- 之后都是位置参数，实际 %v", a.Positional)
	}
}

func TestConfigArgs_CarriesSetFlags(t *testing.T) {
	a, err := parseArgs([]string{"--config", "k.yaml", "--remote", "ws://127.0.0.1:9222/devtools/browser/x"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	c := a.configArgs()
	if c.ConfigPath != "k.yaml" || !c.RemoteSet || c.Remote != a.Remote {
		t.Fatalf("configArgs 不符合预期：%+v", c)
	}
	if c.ServerSet || c.RouteSet || c.HeadlessSet {
		t.Fatalf("未指定的参数不应标记为 Set：%+v", c)
	}
}

func TestPrintUsage_ScanDropsLinesWhileInFlight(t *testing.T) {
	var b strings.Builder
	printUsage(&b)
	out := b.String()
	for _, want := range []string{"在途期间到达的行会被丢弃", "ignored"} {
		if !strings.Contains(out, want) {
			t.Fatalf("期望用法说明包含 %q，实际：\n%s", want, out)
		}
	}
}
