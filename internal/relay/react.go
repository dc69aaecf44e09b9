package relay

import (
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/ui"
)

// NavigateDelay 是 success/ambiguous 之后到页面跳转之间的固定停留时间。
const NavigateDelay = time.Second

// Navigation 描述一次延迟导航。Reload=true 时忽略 Target，重新加载当前页。
type Navigation struct {
	Target string
	Reload bool
	Delay  time.Duration
}

// Reaction 是 relay 对一次扫描结果的完整反应：状态文本 + 可选导航。
type Reaction struct {
	Status ui.Status
	Nav    *Navigation
}

// React 根据服务端判定和当前路由计算反应（纯函数）。
//
// 规则：
// - success：根路由跳 /home，其他路由原地刷新
// - ambiguous：跳消歧页，tag_id 存在时带上
// - 其余一律 rejected，显示 reason（缺失时显示通用文案）
func React(out domain.Outcome, currentPath string) Reaction {
	switch out.Kind {
	case domain.OutcomeSuccess:
		nav := &Navigation{Delay: NavigateDelay}
		if domain.CleanRoute(currentPath) == domain.RouteRoot {
			nav.Target = domain.RouteHome
		} else {
			nav.Reload = true
		}
		return Reaction{Status: ui.ScanSucceeded(), Nav: nav}
	case domain.OutcomeAmbiguous:
		return Reaction{
			Status: ui.ScanAmbiguous(),
			Nav:    &Navigation{Target: domain.DepartmentSelectionURL(out.TagID), Delay: NavigateDelay},
		}
	default:
		return Reaction{Status: ui.ScanRejected(out.Reason)}
	}
}

// NetworkFailure 是传输失败（连不上 / 响应不是 JSON）时的反应。不重试、不导航。
func NetworkFailure() Reaction {
	return Reaction{Status: ui.NetworkError()}
}

// describe 返回导航在报告里的字符串形式。
func (n *Navigation) describe() string {
	if n == nil {
		return ""
	}
	if n.Reload {
		return "reload"
	}
	return n.Target
}
