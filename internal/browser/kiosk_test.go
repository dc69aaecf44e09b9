package browser

import (
	"net/url"
	"strings"
	"testing"
)

func TestKiosk_ResolveKeepsMountPrefix(t *testing.T) {
	base, err := url.Parse("http://kiosk.test/app")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	k := &Kiosk{base: base}

	cases := map[string]string{
		"/home":                               "http://kiosk.test/app/home",
		"/nfc/department-selection?tag_id=T1": "http://kiosk.test/app/nfc/department-selection?tag_id=T1",
		"/":                                   "http://kiosk.test/app/",
	}
	for in, want := range cases {
		if got := k.resolve(in); got != want {
			t.Fatalf("resolve(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}

func TestKiosk_RouteStripsMountPrefix(t *testing.T) {
	base, _ := url.Parse("http://kiosk.test/app")
	k := &Kiosk{base: base}

	if got := k.route("http://kiosk.test/app/"); got != "/" {
		t.Fatalf("应用根页期望路由 /，实际 %q", got)
	}
	if got := k.route("/app/home"); got != "/home" {
		t.Fatalf("期望 /home，实际 %q", got)
	}
}

func TestListenerJS_NFCRequiresSiblingStatus(t *testing.T) {
	// 扫描框只有在同一父元素下找到状态区时才绑定。
	i := strings.Index(listenerJS, "getElementById('nfc-input')")
	j := strings.Index(listenerJS, "op: 'nfc'")
	if i < 0 || j < 0 {
		t.Fatalf("listener 缺少扫描框绑定")
	}
	guard := listenerJS[i:j]
	if !strings.Contains(guard, "parentNode") || !strings.Contains(guard, "nfcStatus") {
		t.Fatalf("扫描框绑定前应检查同级状态区：%s", guard)
	}
}
