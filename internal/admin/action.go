package admin

import (
	"context"
	"errors"
	"log/slog"

	"github.com/John-Robertt/narvaro/internal/domain"
)

// Action 是一个待确认的管理操作。
type Action struct {
	Name    string
	Prompt  string
	Request domain.FormRequest
}

// DeleteUser 删除用户。
func DeleteUser(userID string) (Action, error) {
	if userID == "" {
		return Action{}, errors.New("admin: user id 不能为空")
	}
	req, err := NewFormRequest(domain.PathAdminUsers, "delete", map[string]string{"id": userID})
	if err != nil {
		return Action{}, err
	}
	return Action{
		Name:    "delete-user",
		Prompt:  "Är du säker på att du vill ta bort användare " + userID + "?",
		Request: req,
	}, nil
}

// RevokeTag 吊销 NFC 标签。
func RevokeTag(tagID string) (Action, error) {
	if tagID == "" {
		return Action{}, errors.New("admin: tag id 不能为空")
	}
	req, err := NewFormRequest(domain.PathAdminTags, "revoke", map[string]string{"tag_id": tagID})
	if err != nil {
		return Action{}, err
	}
	return Action{
		Name:    "revoke-tag",
		Prompt:  "Är du säker på att du vill återkalla denna tagg?",
		Request: req,
	}, nil
}

// CloseAlarm 关闭警报。
func CloseAlarm(alarmID string) (Action, error) {
	if alarmID == "" {
		return Action{}, errors.New("admin: alarm id 不能为空")
	}
	req, err := NewFormRequest(domain.PathAdminAlarms, "close", map[string]string{"alarm_id": alarmID})
	if err != nil {
		return Action{}, err
	}
	return Action{
		Name:    "close-alarm",
		Prompt:  "Är du säker på att du vill stänga detta larm?",
		Request: req,
	}, nil
}

// Confirmer 向操作者展示确认提示。
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Submitter 把表单真正提交出去，返回重定向目标。
type Submitter interface {
	SubmitForm(ctx context.Context, req domain.FormRequest) (string, error)
}

// Dispatcher 串起“确认 → 提交”。
type Dispatcher struct {
	Confirmer Confirmer
	Submitter Submitter
	Logger    *slog.Logger
}

// Dispatch 执行一次管理操作。
//
// 规则：
// - 操作者拒绝：什么都不发，sent=false
// - 确认后提交一次，不等待业务结果；location 是服务端重定向目标（可能为空）
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (location string, sent bool, err error) {
	if d.Confirmer == nil || d.Submitter == nil {
		return "", false, errors.New("admin: dispatcher 未配置")
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	ok, err := d.Confirmer.Confirm(ctx, a.Prompt)
	if err != nil {
		return "", false, err
	}
	if !ok {
		log.Info("admin: 操作已取消", "action", a.Name)
		return "", false, nil
	}

	loc, err := d.Submitter.SubmitForm(ctx, a.Request)
	if err != nil {
		log.Warn("admin: 提交失败", "action", a.Name, "error", err)
		return "", true, err
	}
	log.Info("admin: 已提交", "action", a.Name, "path", a.Request.Path, "location", loc)
	return loc, true, nil
}
