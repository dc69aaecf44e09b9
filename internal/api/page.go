package api

import (
	"context"
	"net/http"
)

// FetchPage 以 GET 读取一个路由的 HTML（用于 DOM 契约检查）。
func (c *Client) FetchPage(ctx context.Context, route string) ([]byte, string, error) {
	u := c.Resolve(route)
	resp, err := c.do(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, u, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		loc := resp.Header.Get("Location")
		resp.Body.Close()
		return nil, u, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: loc}
	}
	b, err := readBody(resp)
	return b, u, err
}
