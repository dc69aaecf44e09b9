package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// OutcomeKind 是扫描结果的判别标签（tagged union 的 tag）。
type OutcomeKind int

const (
	// OutcomeRejected 覆盖 success/ambiguous 之外的所有 result（包括缺失）。
	OutcomeRejected OutcomeKind = iota
	OutcomeSuccess
	OutcomeAmbiguous
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "rejected"
	}
}

// 服务端已知的 result 取值（见 /auth/nfc-scan）。
const (
	ResultSuccess    = "success"
	ResultAmbiguous  = "ambiguous"
	ResultUnknownTag = "unknown_tag"
	ResultRevoked    = "revoked"
	ResultNotMember  = "not_member"
	ResultDenied     = "denied"
	ResultError      = "error"
)

// Outcome 是服务端对一次扫描的判定结果，在 HTTP 边界完成校验后才交给上层。
//
// 约束：
// - Kind 由 Result 唯一决定（Result 保留原始字符串，便于日志与报告追溯）
// - TagID 只对 ambiguous 有意义；Reason 只对 rejected 有意义
type Outcome struct {
	Kind   OutcomeKind
	Result string
	TagID  string
	Reason string
}

// wireOutcome 对应服务端 JSON：{ result, tag_id?, reason? }。
// tag_id 在服务端是数据库主键，可能以数字或字符串出现。
type wireOutcome struct {
	Result json.RawMessage `json:"result"`
	TagID  json.RawMessage `json:"tag_id"`
	Reason json.RawMessage `json:"reason"`
}

// ErrNotObject 表示响应体不是 JSON 对象（浏览器端 response.json() 同样会失败）。
var ErrNotObject = errors.New("响应不是 JSON 对象")

// DecodeOutcome 把 /auth/nfc-scan 的响应体解析为 Outcome。
//
// 规则：
// - 非 JSON 对象：返回错误（上层按网络错误处理）
// - result 缺失/为 null/非字符串：视为 rejected，Result 为空
// - tag_id 允许字符串或数字；其他类型忽略
// - reason 只接受字符串；空白视为缺失
func DecodeOutcome(b []byte) (Outcome, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return Outcome{}, ErrNotObject
	}
	var w wireOutcome
	if err := json.Unmarshal(b, &w); err != nil {
		return Outcome{}, fmt.Errorf("解析扫描结果失败：%w", err)
	}

	out := Outcome{
		Result: rawString(w.Result),
		Reason: strings.TrimSpace(rawString(w.Reason)),
	}
	switch out.Result {
	case ResultSuccess:
		out.Kind = OutcomeSuccess
	case ResultAmbiguous:
		out.Kind = OutcomeAmbiguous
		out.TagID = rawScalar(w.TagID)
	default:
		out.Kind = OutcomeRejected
	}
	if out.Kind != OutcomeRejected {
		out.Reason = ""
	}
	return out, nil
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// rawScalar 接受字符串或数字，统一为字符串；数字保持其十进制原样（不经过 float64）。
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		return strings.TrimSpace(rawString(raw))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return ""
	}
	return n.String()
}
