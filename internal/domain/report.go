package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// 扫描记录的状态（与 StatusKind 一一对应，另加 ignored）。
const (
	ScanStatusSuccess   = "success"
	ScanStatusAmbiguous = "ambiguous"
	ScanStatusRejected  = "rejected"
	ScanStatusNetwork   = "network_error"
	ScanStatusIgnored   = "ignored"
)

// SessionReport 是一次 kiosk 会话的对外稳定输出（stdout JSON）。
//
// 注意：不记录原始 UID（服务端只保存其 HMAC），只记录 attempt ID 与判定结果。
type SessionReport struct {
	Server string `json:"server"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary SessionSummary `json:"summary"`
	Scans   []ScanRecord   `json:"scans"`
}

type SessionSummary struct {
	Success   int `json:"success"`
	Ambiguous int `json:"ambiguous"`
	Rejected  int `json:"rejected"`
	Network   int `json:"network_error"`
	Ignored   int `json:"ignored"`
}

type ScanRecord struct {
	AttemptID  string    `json:"attempt_id"`
	At         time.Time `json:"at"`
	Status     string    `json:"status"`
	Result     string    `json:"result"`
	TagID      string    `json:"tag_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Navigate   string    `json:"navigate,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) scans 按时间稳定排序（同一时刻保持写入顺序）
// 3) summary 由 scans 计算得出
func (r *SessionReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Scans == nil {
		r.Scans = []ScanRecord{}
	}

	for i := range r.Scans {
		r.Scans[i].At = r.Scans[i].At.UTC()
	}
	sort.SliceStable(r.Scans, func(i, j int) bool {
		return r.Scans[i].At.Before(r.Scans[j].At)
	})

	var s SessionSummary
	for _, it := range r.Scans {
		switch it.Status {
		case ScanStatusSuccess:
			s.Success++
		case ScanStatusAmbiguous:
			s.Ambiguous++
		case ScanStatusRejected:
			s.Rejected++
		case ScanStatusNetwork:
			s.Network++
		case ScanStatusIgnored:
			s.Ignored++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性。
func (r SessionReport) MarshalJSON() ([]byte, error) {
	type Alias SessionReport
	return json.Marshal(Alias(r))
}
