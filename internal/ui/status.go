// Package ui 把页面交互层的视图状态建模为显式值 + 纯函数。
// 适配器（控制台 / kiosk 浏览器）只负责把这些值画出来。
package ui

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StatusKind 决定状态文本的样式（对应页面上的 success/warning/error class）。
type StatusKind int

const (
	StatusScanning StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusScanning:
		return "scanning"
	case StatusSuccess:
		return ClassSuccess
	case StatusWarning:
		return ClassWarning
	default:
		return ClassError
	}
}

// 页面固定文案（瑞典语，与服务端模板一致）。
const (
	TextScanning       = "Skannar..."
	TextScanSuccess    = "✓ Lyckades!"
	TextScanAmbiguous  = "⚠ Flera aktiva larm. Omdirigerar..."
	TextNetworkError   = "✗ Nätverksfel"
	TextUnknownError   = "Okänt fel"
	errorPrefix        = "✗ "
	TextMarking        = "Markerar..."
	TextMarked         = "✓ Närvaro markerad"
	TextMarkFailed     = "✗ Fel"
	TextMarkAttendance = "Markera närvaro"
	ClassAttendanceBtn = "attendance-btn"
	ClassSuccess       = "success"
	ClassError         = "error"
	ClassWarning       = "warning"
)

// Status 是状态区域的一次完整渲染值。
type Status struct {
	Kind StatusKind
	Text string
}

func Scanning() Status { return Status{Kind: StatusScanning, Text: TextScanning} }

func ScanSucceeded() Status { return Status{Kind: StatusSuccess, Text: TextScanSuccess} }

func ScanAmbiguous() Status { return Status{Kind: StatusWarning, Text: TextScanAmbiguous} }

func NetworkError() Status { return Status{Kind: StatusError, Text: TextNetworkError} }

// ScanRejected 使用服务端给出的 reason；为空时回退到通用文案。
func ScanRejected(reason string) Status {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = TextUnknownError
	}
	return Status{Kind: StatusError, Text: errorPrefix + reason}
}

var strict = bluemonday.StrictPolicy()

// HTML 渲染为状态区域的 innerHTML。
//
// 文本来自服务端（reason），写入 innerHTML 之前必须去掉标签并转义。
// scanning 状态是纯文本，不带 span（与页面原有表现一致）。
func (s Status) HTML() string {
	text := sanitizeText(s.Text)
	if s.Kind == StatusScanning {
		return text
	}
	return `<span class="` + s.Kind.String() + `">` + text + `</span>`
}

// sanitizeText 去掉所有标签；bluemonday 输出会把 & < > 等转义为实体。
func sanitizeText(s string) string {
	out := strict.Sanitize(s)
	// StrictPolicy 会把已有实体保留为实体；再次 unescape+escape 统一成标准形式。
	return html.EscapeString(html.UnescapeString(out))
}
