package ui

import (
	"unicode/utf8"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// CredentialLength 是登录页 ID 与密码的固定长度。
const CredentialLength = 4

// LoginField 标识登录页的两个输入框（#id / #password）。
type LoginField int

const (
	FieldID LoginField = iota
	FieldPassword
)

// LoginAction 是一次输入之后应执行的动作。
type LoginAction int

const (
	LoginNone LoginAction = iota
	LoginFocusPassword
	LoginSubmit
)

func (a LoginAction) String() string {
	switch a {
	case LoginFocusPassword:
		return "focus_password"
	case LoginSubmit:
		return "submit"
	default:
		return "none"
	}
}

// LoginAdvance 是登录页的“自动跳格 + 自动提交”便捷行为。
//
// 约束：
// - 只在根路由 "/" 生效（管理页等其他页面的同名输入框不受影响）
// - 长度按字符（rune）计，达到 Length 的那一刻触发；不校验字符内容
type LoginAdvance struct {
	Length int
}

// NewLoginAdvance 使用固定长度 4。
func NewLoginAdvance() LoginAdvance {
	return LoginAdvance{Length: CredentialLength}
}

// Active 判断当前路由是否启用该行为。
func (LoginAdvance) Active(route string) bool {
	return domain.CleanRoute(route) == domain.RouteRoot
}

// OnInput 根据字段当前值计算动作。
func (l LoginAdvance) OnInput(route string, field LoginField, value string) LoginAction {
	if !l.Active(route) {
		return LoginNone
	}
	n := l.Length
	if n <= 0 {
		n = CredentialLength
	}
	if utf8.RuneCountInString(value) != n {
		return LoginNone
	}
	switch field {
	case FieldID:
		return LoginFocusPassword
	case FieldPassword:
		return LoginSubmit
	default:
		return LoginNone
	}
}
