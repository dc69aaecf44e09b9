package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type failingRT struct {
	calls int
}

func (f *failingRT) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestNewClient_ProxyConfigured(t *testing.T) {
	c, err := NewClient(Options{ProxyURL: "http://127.0.0.1:8080"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	base, ok := tr.Base.(*http.Transport)
	if !ok {
		t.Fatalf("期望 *http.Transport，实际 %T", tr.Base)
	}
	if base.Proxy == nil {
		t.Fatalf("期望启用代理，但 Proxy=nil")
	}
	if c.Jar == nil {
		t.Fatalf("期望默认创建 cookie jar")
	}
}

func TestNewClient_InvalidProxyURL(t *testing.T) {
	if _, err := NewClient(Options{ProxyURL: "http://[::1"}); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if _, err := NewClient(Options{ProxyURL: "127.0.0.1:8080"}); err == nil {
		t.Fatalf("缺少 scheme 的代理地址应报错")
	}
}

func TestTransport_PostIsNeverRetried(t *testing.T) {
	base := &failingRT{}
	tr := &Transport{Base: base, RetryMax: 2}

	req, _ := http.NewRequest(http.MethodPost, "http://kiosk.test/auth/nfc-scan", strings.NewReader("rawUid=1"))
	if _, err := tr.RoundTrip(req); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if base.calls != 1 {
		t.Fatalf("POST 不应重试：期望 1 次调用，实际 %d", base.calls)
	}
}

func TestTransport_GetRetriesBounded(t *testing.T) {
	base := &failingRT{}
	tr := &Transport{Base: base, RetryMax: 2}

	req, _ := http.NewRequest(http.MethodGet, "http://kiosk.test/", nil)
	if _, err := tr.RoundTrip(req); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if base.calls != 3 {
		t.Fatalf("期望 3 次尝试，实际 %d", base.calls)
	}
}

func TestClient_SetsUserAgentAndRequestID(t *testing.T) {
	var gotUA, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	ctx := WithRequestID(context.Background(), "attempt-1")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if gotUA != UserAgent {
		t.Fatalf("期望 UA=%q，实际=%q", UserAgent, gotUA)
	}
	if gotID != "attempt-1" {
		t.Fatalf("期望 X-Request-ID=attempt-1，实际=%q", gotID)
	}
}

func TestClient_DoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/users", http.StatusFound)
	}))
	defer srv.Close()

	c, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp, err := c.Post(srv.URL+"/admin/users", "application/x-www-form-urlencoded", strings.NewReader("action=delete&id=1"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("期望 302，实际 %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/admin/users" {
		t.Fatalf("期望 Location=/admin/users，实际=%q", loc)
	}
}

func TestNewClient_OwnJarPerClient(t *testing.T) {
	a, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	u, _ := url.Parse("http://kiosk.test/")
	a.Jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "s1"}})
	if got := len(a.Jar.Cookies(u)); got != 1 {
		t.Fatalf("期望 1 个 cookie，实际 %d", got)
	}
	if got := len(b.Jar.Cookies(u)); got != 0 {
		t.Fatalf("不同 client 不应共享 jar，实际 %d 个 cookie", got)
	}
}
