package ui

// MenuEvent 是导航菜单关心的点击来源。
type MenuEvent int

const (
	// MenuToggleClicked：点击汉堡按钮（.hamburger）。
	MenuToggleClicked MenuEvent = iota
	// MenuLinkClicked：点击导航面板内的链接（.nav-links a）。
	MenuLinkClicked
	// MenuPanelClicked：点击导航面板内、但不是链接的位置。
	MenuPanelClicked
	// MenuOutsideClicked：点击按钮与面板之外的任何位置。
	MenuOutsideClicked
)

// ClassActive 同时加在 .hamburger 与 .nav-links 上。
const ClassActive = "active"

// MenuState 是移动端导航菜单的全部状态。
type MenuState struct {
	Open bool
}

// Next 根据事件计算下一状态（纯函数）。
//
// 汉堡按钮本身位于“面板之外”，但它的点击只触发 toggle，不再叠加 outside 关闭。
func (s MenuState) Next(ev MenuEvent) MenuState {
	switch ev {
	case MenuToggleClicked:
		return MenuState{Open: !s.Open}
	case MenuLinkClicked, MenuOutsideClicked:
		return MenuState{Open: false}
	default:
		return s
	}
}

// Classes 返回 .hamburger 与 .nav-links 应有的 active class 状态。
func (s MenuState) Classes() (hamburgerActive, navLinksActive bool) {
	return s.Open, s.Open
}
