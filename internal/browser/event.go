package browser

import (
	"fmt"

	"github.com/ysmood/gson"
)

// Op 是页面脚本上报的事件类型。
type Op string

const (
	// OpNFC：#nfc-input 的 input 事件，Value 为当前输入框内容。
	OpNFC Op = "nfc"
	// OpLogin：#id / #password 的 input 事件，Field 为 "id" 或 "password"。
	OpLogin Op = "login"
	// OpMenu：页面点击，Target 为 toggle/link/panel/outside。
	OpMenu Op = "menu"
	// OpMark：markAttendance(alarm, dept, this) 被调用，Ctl 标识按钮。
	OpMark Op = "mark"
	// OpAdmin：deleteUser/revokeTag/closeAlarm 被调用。
	OpAdmin Op = "admin"
	// OpReady：新文档 DOMContentLoaded。
	OpReady Op = "ready"
)

// Event 是一次页面事件（字段按 Op 取用，其余为空）。
type Event struct {
	Op     Op
	Value  string
	Field  string
	Target string
	Alarm  string
	Dept   string
	Ctl    string
	Fn     string
	Arg    string
	Path   string
}

// DecodeEvent 解析 binding payload（页面脚本里 JSON.stringify 的对象）。
func DecodeEvent(payload string) (Event, error) {
	j := gson.NewFrom(payload)
	if _, ok := j.Val().(map[string]interface{}); !ok {
		return Event{}, fmt.Errorf("browser: binding payload 不是对象：%.80q", payload)
	}
	ev := Event{
		Op:     Op(str(j, "op")),
		Value:  str(j, "value"),
		Field:  str(j, "field"),
		Target: str(j, "target"),
		Alarm:  str(j, "alarm"),
		Dept:   str(j, "dept"),
		Ctl:    str(j, "ctl"),
		Fn:     str(j, "fn"),
		Arg:    str(j, "arg"),
		Path:   str(j, "path"),
	}
	switch ev.Op {
	case OpNFC, OpLogin, OpMenu, OpMark, OpAdmin, OpReady:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("browser: 未知事件 %q", ev.Op)
	}
}

// str 取 key 对应的字符串；数字等标量取其 JSON 文本，缺失或 null 为空串。
func str(j gson.JSON, key string) string {
	if !j.Has(key) {
		return ""
	}
	v := j.Get(key)
	if v.Nil() {
		return ""
	}
	if s, ok := v.Val().(string); ok {
		return s
	}
	return fmt.Sprint(v.Val())
}
