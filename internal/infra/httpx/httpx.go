package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultRetryMax = 2

	// UserAgent 固定为 kiosk 标识，服务端 auth_events.client_info 会记录它。
	UserAgent = "narvaro-kiosk/1.0"

	// HeaderRequestID 用于把一次扫描/操作与服务端日志关联。
	HeaderRequestID = "X-Request-ID"
)

type requestIDKey struct{}

// WithRequestID 把 request id 放进 ctx，Transport 会写入 X-Request-ID。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 从 ctx 中取出 request id（不存在时为空串）。
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Transport 把“固定 UA + request id + 有界重试”固化为统一策略。
//
// 约束：只对“可重放”的请求（GET/HEAD 且无 body）重试；
// 扫描/出勤/管理操作都是 POST，因此永远只发一次。
type Transport struct {
	Base http.RoundTripper

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", UserAgent)
		}
		if id := RequestID(req.Context()); id != "" && r.Header.Get(HeaderRequestID) == "" {
			r.Header.Set(HeaderRequestID, id)
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Options 描述 kiosk HTTP client 的网络策略。
type Options struct {
	ProxyURL string
	Timeout  time.Duration
}

// NewClient 构造访问出勤服务端的 HTTP client。
//
// 规则：
// - 不自动跟随重定向：表单提交（登录/管理操作）需要拿到 Location 自行导航
// - proxyURL 非空：走代理
// - 有界重试（仅 GET/HEAD）+ 总超时
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	if p := strings.TrimSpace(opts.ProxyURL); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 缺少 scheme 或 host")
		}
		base.Proxy = http.ProxyURL(u)
	}

	// 每个 client 一个 jar（publicsuffix 规则）；kiosk 模式由 api.CookieSource 在请求前写入浏览器 cookie。
	jar, err := newJar()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Transport: &Transport{Base: base, RetryMax: defaultRetryMax},
		Jar:       jar,
		Timeout:   timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// newJar 返回按 publicsuffix 规则隔离域名的 cookie jar。
func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}
