package domain

// AttendanceResult 对应 POST /attendance/{alarm}/{department} 的 JSON 响应。
type AttendanceResult struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ArrivalTime int    `json:"arrival_time,omitempty"`
}

// AttendanceOptions 是标记出勤时可选的表单字段。
// ArrivalTime 为 nil 表示不发送（服务端按“正在响应”处理）；0 表示已到场；>0 表示预计分钟数。
type AttendanceOptions struct {
	ArrivalTime *int
	Comment     string
}
