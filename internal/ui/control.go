package ui

// ControlState 是出勤按钮的完整视图状态。
type ControlState struct {
	Label    string
	Class    string
	Disabled bool
}

// ControlIdle 是按钮的初始（可交互）状态，失败后 2 秒恢复到这里。
func ControlIdle() ControlState {
	return ControlState{Label: TextMarkAttendance, Class: ClassAttendanceBtn}
}

// ControlBusy 是请求进行中的状态；class 保持不变。
func ControlBusy(class string) ControlState {
	return ControlState{Label: TextMarking, Class: class, Disabled: true}
}

// ControlMarked 是成功后的终态（永久禁用）。
func ControlMarked() ControlState {
	return ControlState{Label: TextMarked, Class: ClassSuccess, Disabled: true}
}

// ControlFailed 是失败的临时状态。network=true 表示传输失败。
//
// 失败期间按钮保持禁用，直到恢复为 ControlIdle。
func ControlFailed(network bool) ControlState {
	label := TextMarkFailed
	if network {
		label = TextNetworkError
	}
	return ControlState{Label: label, Class: ClassError, Disabled: true}
}
