package session

import (
	"sync"
	"time"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/relay"
)

// Recorder 收集一次 kiosk 会话中的扫描结果，结束时生成 SessionReport。
//
// 约束：并发安全（事件来自输入 goroutine 与定时器 goroutine）。
type Recorder struct {
	mu sync.Mutex

	server  string
	started time.Time
	now     func() time.Time

	scans []domain.ScanRecord
}

var _ relay.Observer = (*Recorder)(nil)

// NewRecorder 以 now() 作为会话开始时间；now 为 nil 时使用 time.Now。
func NewRecorder(server string, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{server: server, started: now(), now: now}
}

func (r *Recorder) OnScanStart(domain.ScanAttempt) {}

func (r *Recorder) OnScanDone(rec domain.ScanRecord, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans = append(r.scans, rec)
}

func (r *Recorder) OnIgnored(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans = append(r.scans, domain.ScanRecord{At: at, Status: domain.ScanStatusIgnored})
}

func (r *Recorder) OnNavigate(relay.Navigation) {}

// Report 生成当前快照（可多次调用；返回值与 Recorder 不共享切片）。
func (r *Recorder) Report() domain.SessionReport {
	r.mu.Lock()
	scans := make([]domain.ScanRecord, len(r.scans))
	copy(scans, r.scans)
	r.mu.Unlock()

	rep := domain.SessionReport{
		Server:     r.server,
		StartedAt:  r.started,
		FinishedAt: r.now(),
		Scans:      scans,
	}
	rep.Finalize()
	return rep
}
