package domain

import "net/url"

// FormRequest 是一次“隐藏表单提交”的类型化描述：方法 + 路径 + 字段。
// 控制台模式直接以 application/x-www-form-urlencoded 发出；kiosk 模式在页面里构造真正的 <form>。
type FormRequest struct {
	Method string
	Path   string
	Values url.Values
	// Order 记录字段插入顺序（url.Values 是 map，页面构造 <input> 时需要稳定顺序）。
	Order []string
}

// Fields 按插入顺序返回 (name, value) 对；同名多值按出现顺序展开。
func (r FormRequest) Fields() [][2]string {
	out := make([][2]string, 0, len(r.Values))
	seen := make(map[string]bool, len(r.Order))
	for _, k := range r.Order {
		if seen[k] {
			continue
		}
		seen[k] = true
		for _, v := range r.Values[k] {
			out = append(out, [2]string{k, v})
		}
	}
	return out
}
