package relay

import (
	"strings"
	"testing"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/ui"
)

func TestReact(t *testing.T) {
	cases := []struct {
		name       string
		out        domain.Outcome
		path       string
		wantKind   ui.StatusKind
		wantTarget string
		wantReload bool
		wantNav    bool
	}{
		{
			name:       "根路由成功跳 /home",
			out:        domain.Outcome{Kind: domain.OutcomeSuccess, Result: "success"},
			path:       "/",
			wantKind:   ui.StatusSuccess,
			wantTarget: "/home",
			wantNav:    true,
		},
		{
			name:       "非根路由成功原地刷新",
			out:        domain.Outcome{Kind: domain.OutcomeSuccess, Result: "success"},
			path:       "/admin/alarms",
			wantKind:   ui.StatusSuccess,
			wantReload: true,
			wantNav:    true,
		},
		{
			name:       "ambiguous 带 tag_id",
			out:        domain.Outcome{Kind: domain.OutcomeAmbiguous, Result: "ambiguous", TagID: "T1"},
			path:       "/",
			wantKind:   ui.StatusWarning,
			wantTarget: "/nfc/department-selection?tag_id=T1",
			wantNav:    true,
		},
		{
			name:       "ambiguous 无 tag_id",
			out:        domain.Outcome{Kind: domain.OutcomeAmbiguous, Result: "ambiguous"},
			path:       "/home",
			wantKind:   ui.StatusWarning,
			wantTarget: "/nfc/department-selection",
			wantNav:    true,
		},
		{
			name:     "rejected 不导航",
			out:      domain.Outcome{Kind: domain.OutcomeRejected, Result: "revoked", Reason: "Tag revoked"},
			path:     "/",
			wantKind: ui.StatusError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			re := React(tc.out, tc.path)
			if re.Status.Kind != tc.wantKind {
				t.Fatalf("期望状态 %v，实际 %v", tc.wantKind, re.Status.Kind)
			}
			if (re.Nav != nil) != tc.wantNav {
				t.Fatalf("期望导航=%v，实际 %+v", tc.wantNav, re.Nav)
			}
			if re.Nav == nil {
				return
			}
			if re.Nav.Delay != NavigateDelay {
				t.Fatalf("期望延迟 %v，实际 %v", NavigateDelay, re.Nav.Delay)
			}
			if re.Nav.Reload != tc.wantReload || re.Nav.Target != tc.wantTarget {
				t.Fatalf("期望 target=%q reload=%v，实际 %+v", tc.wantTarget, tc.wantReload, *re.Nav)
			}
		})
	}
}

func TestReact_RejectedReasonAndFallback(t *testing.T) {
	re := React(domain.Outcome{Kind: domain.OutcomeRejected, Result: "other", Reason: "X"}, "/")
	if !strings.Contains(re.Status.Text, "X") {
		t.Fatalf("期望包含 reason，实际 %q", re.Status.Text)
	}

	re = React(domain.Outcome{Kind: domain.OutcomeRejected, Result: "other"}, "/")
	if !strings.Contains(re.Status.Text, ui.TextUnknownError) {
		t.Fatalf("期望包含通用文案，实际 %q", re.Status.Text)
	}
}

func TestReact_AmbiguousTagIsQueryEscaped(t *testing.T) {
	re := React(domain.Outcome{Kind: domain.OutcomeAmbiguous, TagID: "a b&c"}, "/")
	if re.Nav.Target != "/nfc/department-selection?tag_id=a+b%26c" {
		t.Fatalf("tag_id 转义不符合预期：%q", re.Nav.Target)
	}
}

func TestNetworkFailure(t *testing.T) {
	re := NetworkFailure()
	if re.Nav != nil || re.Status.Text != ui.TextNetworkError {
		t.Fatalf("网络失败反应不符合预期：%+v", re)
	}
}
