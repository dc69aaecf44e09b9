package session

import (
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
)

func TestRecorder_Report(t *testing.T) {
	base := time.Date(2024, 1, 2, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	clock := base
	r := NewRecorder("http://kiosk.test", func() time.Time { return clock })

	r.OnScanDone(domain.ScanRecord{AttemptID: "b", At: base.Add(2 * time.Second), Status: domain.ScanStatusRejected, Result: "revoked"}, 0)
	r.OnScanDone(domain.ScanRecord{AttemptID: "a", At: base.Add(time.Second), Status: domain.ScanStatusSuccess, Result: "success"}, 0)
	r.OnIgnored(base.Add(1500 * time.Millisecond))
	clock = base.Add(time.Minute)

	rep := r.Report()
	if rep.Server != "http://kiosk.test" {
		t.Fatalf("期望 server=http://kiosk.test，实际 %q", rep.Server)
	}
	if rep.StartedAt.Location() != time.UTC || !rep.StartedAt.Equal(base) {
		t.Fatalf("开始时间应为 UTC 且等于 base，实际 %v", rep.StartedAt)
	}
	if !rep.FinishedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("结束时间不符合预期：%v", rep.FinishedAt)
	}
	if len(rep.Scans) != 3 || rep.Scans[0].AttemptID != "a" || rep.Scans[1].Status != domain.ScanStatusIgnored || rep.Scans[2].AttemptID != "b" {
		t.Fatalf("记录应按时间排序，实际 %+v", rep.Scans)
	}
	want := domain.SessionSummary{Success: 1, Rejected: 1, Ignored: 1}
	if rep.Summary != want {
		t.Fatalf("期望 summary=%+v，实际 %+v", want, rep.Summary)
	}
}

func TestRecorder_ConcurrentEvents(t *testing.T) {
	r := NewRecorder("s", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.OnScanDone(domain.ScanRecord{At: time.Now(), Status: domain.ScanStatusNetwork}, 0)
		}()
		go func() {
			defer wg.Done()
			r.OnIgnored(time.Now())
		}()
	}
	wg.Wait()

	rep := r.Report()
	if rep.Summary.Network != 50 || rep.Summary.Ignored != 50 {
		t.Fatalf("期望 50/50，实际 %+v", rep.Summary)
	}
}

func TestRecorder_EmptyReportHasEmptyScans(t *testing.T) {
	rep := NewRecorder("s", nil).Report()
	if rep.Scans == nil || len(rep.Scans) != 0 {
		t.Fatalf("期望空切片而不是 nil，实际 %#v", rep.Scans)
	}
}
