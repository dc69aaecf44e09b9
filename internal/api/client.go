package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// maxBody 限制读取的响应体大小；JSON 响应都很小，页面 HTML 也远小于该值。
const maxBody = 4 << 20

// CookieSource 在每次请求前把外部会话（例如 kiosk 浏览器）的 cookie 同步进 client 的 jar。
type CookieSource interface {
	SyncCookies(ctx context.Context, jar http.CookieJar, u *url.URL) error
}

// Client 是出勤服务端的最小客户端：只覆盖页面交互层用到的几个接口。
//
// 约束：
// - 不做缓存、不做重试（POST 由 httpx.Transport 保证只发一次）
// - 不跟随重定向：表单提交返回 Location，由调用方决定如何导航
type Client struct {
	base    *url.URL
	hc      *http.Client
	cookies CookieSource
	log     *slog.Logger
}

// New 构造 Client。baseURL 必须是 http/https 绝对地址。
func New(baseURL string, hc *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("server 地址无效：%w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("server 地址必须是 http/https 绝对地址：%q", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	if hc == nil {
		return nil, errors.New("http client 不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: u, hc: hc, log: logger}, nil
}

// WithCookies 返回一个共享底层 http.Client、但在请求前同步 cookie 的副本。
func (c *Client) WithCookies(src CookieSource) *Client {
	cp := *c
	cp.cookies = src
	return &cp
}

// BaseURL 返回服务端根地址（不含末尾 '/'）。
func (c *Client) BaseURL() string { return c.base.String() }

// Resolve 把路由路径（可带 query）解析为服务端绝对地址；server 带路径时路由挂在该路径下。
func (c *Client) Resolve(route string) string {
	return domain.ResolveRoute(c.base, route)
}

func (c *Client) do(ctx context.Context, method, route string, form url.Values) (*http.Response, error) {
	u := c.Resolve(route)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	if c.cookies != nil && c.hc.Jar != nil {
		if err := c.cookies.SyncCookies(ctx, c.hc.Jar, req.URL); err != nil {
			// 同步失败不阻断请求：服务端会按未登录处理，页面上表现为业务失败。
			c.log.Warn("api: sync cookies failed", "url", u, "error", err)
		}
	}
	return c.hc.Do(req)
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}
