package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/infra/sched"
	"github.com/John-Robertt/narvaro/internal/ui"
)

// RestoreDelay 是失败后按钮恢复为可点击之前的停留时间。
const RestoreDelay = 2 * time.Second

// API 是出勤接口（生产实现是 *api.Client）。
type API interface {
	MarkAttendance(ctx context.Context, alarmID, departmentID string, opts domain.AttendanceOptions) (domain.AttendanceResult, error)
}

// Control 是被点击的那个按钮。
type Control interface {
	Set(s ui.ControlState)
}

// Marker 处理“标记出勤”按钮。
type Marker struct {
	API       API
	Scheduler sched.Scheduler
	Logger    *slog.Logger
}

// Mark 为 (alarmID, departmentID) 标记出勤，并驱动按钮状态。
//
// 规则：
// - 请求期间按钮禁用，文字为 Markerar...
// - success=true：按钮永久禁用，显示已标记
// - success=false 或传输失败：显示错误，2 秒后恢复初始状态
//
// 返回值只用于日志与测试；页面效果已经通过 control 完成。
func (m *Marker) Mark(ctx context.Context, alarmID, departmentID string, control Control, opts domain.AttendanceOptions) (domain.AttendanceResult, error) {
	if m.API == nil {
		return domain.AttendanceResult{}, errors.New("attendance: api 不能为空")
	}
	alarmID = strings.TrimSpace(alarmID)
	departmentID = strings.TrimSpace(departmentID)
	if alarmID == "" || departmentID == "" {
		return domain.AttendanceResult{}, errors.New("attendance: alarm id 与 department id 不能为空")
	}
	if control == nil {
		control = nopControl{}
	}
	log := m.Logger
	if log == nil {
		log = slog.Default()
	}

	control.Set(ui.ControlBusy(ui.ClassAttendanceBtn))

	res, err := m.API.MarkAttendance(ctx, alarmID, departmentID, opts)
	switch {
	case err != nil:
		log.Warn("attendance: 请求失败", "alarm", alarmID, "department", departmentID, "error", err)
		control.Set(ui.ControlFailed(true))
		m.restoreLater(control)
	case res.Success:
		log.Info("attendance: 已标记", "alarm", alarmID, "department", departmentID)
		control.Set(ui.ControlMarked())
	default:
		log.Warn("attendance: 服务端拒绝", "alarm", alarmID, "department", departmentID, "reason", res.Error)
		control.Set(ui.ControlFailed(false))
		m.restoreLater(control)
	}
	return res, err
}

func (m *Marker) restoreLater(control Control) {
	s := m.Scheduler
	if s == nil {
		s = sched.Real{}
	}
	s.AfterFunc(RestoreDelay, func() {
		control.Set(ui.ControlIdle())
	})
}

type nopControl struct{}

func (nopControl) Set(ui.ControlState) {}
