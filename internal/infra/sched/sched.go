package sched

import (
	"sort"
	"sync"
	"time"
)

// Scheduler 抽象“延迟执行”，让 1 秒跳转 / 2 秒恢复这类 UI 延时在测试中可控。
//
// 约束：已调度的任务不可取消（与页面行为一致）。
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// Real 使用 time.AfterFunc。
type Real struct{}

func (Real) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Manual 是手动推进的调度器（测试用）。
// 任务在 Advance 时按到期时间顺序同步执行；同一时刻按调度顺序执行。
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []task
}

type task struct {
	at  time.Duration
	seq int
	f   func()
}

func (m *Manual) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	m.tasks = append(m.tasks, task{at: m.now + d, seq: m.seq, f: f})
}

// Pending 返回尚未执行的任务数。
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Delays 返回尚未执行任务相对“当前时刻”的剩余延迟（按到期顺序）。
func (m *Manual) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortLocked()
	out := make([]time.Duration, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.at-m.now)
	}
	return out
}

// Advance 把时间推进 d，并执行所有到期任务。
// 任务在锁外执行，因此任务内部可以再次调度。
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		m.sortLocked()
		if len(m.tasks) == 0 || m.tasks[0].at > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.now = t.at
		m.mu.Unlock()

		t.f()
	}
}

func (m *Manual) sortLocked() {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at != m.tasks[j].at {
			return m.tasks[i].at < m.tasks[j].at
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
}

// Tracked 包装一个 Scheduler，并记录尚未执行完的任务，供退出前 Wait。
type Tracked struct {
	Inner Scheduler
	wg    sync.WaitGroup
}

func (t *Tracked) AfterFunc(d time.Duration, f func()) {
	inner := t.Inner
	if inner == nil {
		inner = Real{}
	}
	t.wg.Add(1)
	inner.AfterFunc(d, func() {
		defer t.wg.Done()
		f()
	})
}

// Wait 阻塞到所有已调度任务执行完毕。
func (t *Tracked) Wait() { t.wg.Wait() }
