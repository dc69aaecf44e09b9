package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// MarkAttendance 调用 POST /attendance/{alarmID}/{departmentID}。
//
// 与 ScanNFC 相同：状态码不参与判定，服务端 500 也会带 {"success":false,"error":...}。
func (c *Client) MarkAttendance(ctx context.Context, alarmID, departmentID string, opts domain.AttendanceOptions) (domain.AttendanceResult, error) {
	path := domain.AttendancePath(alarmID, departmentID)

	form := url.Values{}
	if opts.ArrivalTime != nil {
		form.Set("arrival_time", strconv.Itoa(*opts.ArrivalTime))
	}
	if s := strings.TrimSpace(opts.Comment); s != "" {
		form.Set("comment", s)
	}

	resp, err := c.do(ctx, http.MethodPost, path, form)
	if err != nil {
		return domain.AttendanceResult{}, &TransportError{Op: "attendance", URL: c.Resolve(path), Err: err}
	}
	status := resp.StatusCode
	b, err := readBody(resp)
	if err != nil {
		return domain.AttendanceResult{}, &TransportError{Op: "attendance", URL: c.Resolve(path), StatusCode: status, Err: err}
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return domain.AttendanceResult{}, &TransportError{Op: "attendance", URL: c.Resolve(path), StatusCode: status, Err: errors.New("响应不是 JSON 对象")}
	}
	var res domain.AttendanceResult
	if err := json.Unmarshal(b, &res); err != nil {
		return domain.AttendanceResult{}, &TransportError{Op: "attendance", URL: c.Resolve(path), StatusCode: status, Err: err}
	}
	c.log.Debug("api: attendance", "alarm", alarmID, "department", departmentID, "status", status, "success", res.Success)
	return res, nil
}
