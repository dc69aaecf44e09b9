// Package page 检查服务端渲染的 HTML 是否满足页面交互层依赖的 DOM 约定。
//
// 页面上缺失的元素不是错误：各组件只是不绑定。这里只负责“看见了什么”。
package page

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AttendanceButton 是一个 onclick="markAttendance('alarm', dept, this)" 按钮。
type AttendanceButton struct {
	AlarmID      string `json:"alarm_id"`
	DepartmentID string `json:"department_id"`
	Label        string `json:"label"`
	Disabled     bool   `json:"disabled"`
}

// AdminTrigger 是一个 onclick 调用 deleteUser/revokeTag/closeAlarm 的元素。
type AdminTrigger struct {
	Func  string `json:"func"`
	Arg   string `json:"arg"`
	Label string `json:"label"`
}

// Bindings 是一页 HTML 上可被绑定的元素清单。
type Bindings struct {
	Title string `json:"title"`

	NFCInput   bool `json:"nfc_input"`
	NFCStatus  bool `json:"nfc_status"`
	Login      bool `json:"login"`
	OccurredAt bool `json:"occurred_at"`
	Menu       bool `json:"menu"`

	// LoginAction 是包含 #id 的表单的 action（为空表示提交到当前地址）。
	LoginAction string `json:"login_action,omitempty"`

	Attendance []AttendanceButton `json:"attendance"`
	Admin      []AdminTrigger     `json:"admin"`

	// Messages 是页面上的错误/提示文本（模板里的 error 与 flash）。
	Messages []string `json:"messages,omitempty"`
}

var (
	reMark  = regexp.MustCompile(`markAttendance\(\s*['"]?([^'",)\s]+)['"]?\s*,\s*['"]?([^'",)\s]+)['"]?\s*,\s*this\s*\)`)
	reAdmin = regexp.MustCompile(`\b(deleteUser|revokeTag|closeAlarm)\(\s*['"]?([^'")]*?)['"]?\s*\)`)
)

// messageSelector 覆盖模板里常见的错误/提示容器。
const messageSelector = ".error, .alert, .flash, .flash-message, .success-message"

// Inspect 解析 html 并返回绑定清单。
func Inspect(html []byte) (Bindings, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Bindings{}, fmt.Errorf("解析页面失败：%w", err)
	}

	b := Bindings{
		Title:      normSpace(doc.Find("title").First().Text()),
		NFCInput:   doc.Find("#nfc-input").Length() > 0,
		NFCStatus:  doc.Find("#nfc-status, .nfc-status").Length() > 0,
		Login:      doc.Find("#id").Length() > 0 && doc.Find("#password").Length() > 0,
		OccurredAt: doc.Find("#occurred_at").Length() > 0,
		Menu:       doc.Find(".hamburger").Length() > 0 && doc.Find(".nav-links").Length() > 0,
		Attendance: []AttendanceButton{},
		Admin:      []AdminTrigger{},
	}

	if b.Login {
		if action, ok := doc.Find("#id").First().Closest("form").Attr("action"); ok {
			b.LoginAction = strings.TrimSpace(action)
		}
	}

	doc.Find("[onclick]").Each(func(_ int, s *goquery.Selection) {
		onclick, _ := s.Attr("onclick")
		label := normSpace(s.Text())
		if m := reMark.FindStringSubmatch(onclick); m != nil {
			_, disabled := s.Attr("disabled")
			b.Attendance = append(b.Attendance, AttendanceButton{
				AlarmID:      m[1],
				DepartmentID: m[2],
				Label:        label,
				Disabled:     disabled,
			})
			return
		}
		if m := reAdmin.FindStringSubmatch(onclick); m != nil {
			b.Admin = append(b.Admin, AdminTrigger{Func: m[1], Arg: strings.TrimSpace(m[2]), Label: label})
		}
	})

	doc.Find(messageSelector).Each(func(_ int, s *goquery.Selection) {
		if t := normSpace(s.Text()); t != "" {
			b.Messages = append(b.Messages, t)
		}
	})
	return b, nil
}

// Missing 返回 route 上“按约定应有但没找到”的元素描述，供 check 命令提示。
//
// 只有登录页（"/"）对 #id/#password 有要求；其余页面只检查扫描区。
func (b Bindings) Missing(route string) []string {
	var out []string
	if b.NFCInput && !b.NFCStatus {
		out = append(out, "#nfc-status/.nfc-status")
	}
	if route == "/" && !b.Login {
		out = append(out, "#id + #password")
	}
	return out
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
