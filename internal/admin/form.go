// Package admin 负责管理页上的破坏性操作：先确认，再以表单提交。
package admin

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// NewFormRequest 构造一次“隐藏表单提交”。
//
// 规则：
// - route 规范化为以 '/' 开头
// - action 字段永远排第一，其余字段按 key 排序（map 迭代无序，输出需要稳定）
// - route 或 action 为空返回错误
func NewFormRequest(route, action string, fields map[string]string) (domain.FormRequest, error) {
	route = strings.TrimSpace(route)
	action = strings.TrimSpace(action)
	if route == "" {
		return domain.FormRequest{}, errors.New("admin: route 不能为空")
	}
	if action == "" {
		return domain.FormRequest{}, errors.New("admin: action 不能为空")
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}

	req := domain.FormRequest{
		Method: http.MethodPost,
		Path:   route,
		Values: url.Values{"action": {action}},
		Order:  []string{"action"},
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "action" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.Values.Set(k, fields[k])
		req.Order = append(req.Order, k)
	}
	return req, nil
}

// OccurredAtLayout 对应 <input type="datetime-local"> 的取值格式。
const OccurredAtLayout = "2006-01-02T15:04"

// DefaultOccurredAt 返回 #occurred_at 为空时填入的默认值（本地时间，精确到分钟）。
func DefaultOccurredAt(now time.Time) string {
	return now.Local().Format(OccurredAtLayout)
}
