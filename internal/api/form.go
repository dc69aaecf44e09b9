package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// SubmitForm 以表单形式提交 req，返回服务端的重定向目标（没有重定向时为空串）。
//
// 只处理“提交 + 拿 Location”：2xx/3xx 视为已提交，4xx/5xx 返回 *HTTPStatusError。
func (c *Client) SubmitForm(ctx context.Context, req domain.FormRequest) (string, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	if strings.TrimSpace(req.Path) == "" {
		return "", errors.New("表单路径不能为空")
	}

	resp, err := c.do(ctx, method, req.Path, req.Values)
	if err != nil {
		return "", err
	}
	_, _ = readBody(resp)

	loc := resp.Header.Get("Location")
	if resp.StatusCode >= 400 {
		return "", &HTTPStatusError{URL: c.Resolve(req.Path), StatusCode: resp.StatusCode, Location: loc}
	}
	return loc, nil
}

// Login 提交登录表单（id + password），返回重定向目标。
func (c *Client) Login(ctx context.Context, id, password string) (string, error) {
	req := domain.FormRequest{
		Method: http.MethodPost,
		Path:   domain.PathLogin,
		Order:  []string{"id", "password"},
	}
	req.Values = url.Values{
		"id":       {id},
		"password": {password},
	}
	return c.SubmitForm(ctx, req)
}
