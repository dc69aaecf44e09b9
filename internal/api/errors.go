package api

import (
	"errors"
	"fmt"
	"strings"
)

// HTTPStatusError 表示服务端返回了非预期的 HTTP 状态码（页面抓取、表单提交）。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// TransportError 表示“拿不到可解释的 JSON”：网络失败、读取失败或响应体无法解析。
// 对页面而言这几种情况是同一类（fetch 被 reject），统一显示网络错误且不重试。
type TransportError struct {
	Op         string // "nfc-scan" / "attendance"
	URL        string
	StatusCode int // 0 表示连响应都没拿到
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport 判断 err 是否为 TransportError。
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}
