// internal/ai/scheduler.go
package ai

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs fn after d unless the returned cancel func is called first. Sessions use it
// for AI think time and disconnect substitution so that no goroutine ever sleeps.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler is the production scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualScheduler holds scheduled callbacks until a test advances its clock.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTask
}

type manualTask struct {
	at       time.Duration
	seq      int
	fn       func()
	canceled bool
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) Schedule(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	task := &manualTask{at: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, task)
	return func() {
		m.mu.Lock()
		task.canceled = true
		m.mu.Unlock()
	}
}

// Pending counts callbacks that are scheduled and not canceled.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.canceled {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and runs every due callback in due order. Callbacks run
// without the scheduler lock held, so they may schedule again.
func (m *ManualScheduler) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	ran := 0
	for {
		task := m.popDue(now)
		if task == nil {
			return ran
		}
		task.fn()
		ran++
	}
}

// RunAll fires callbacks until nothing is pending, however far in the future.
func (m *ManualScheduler) RunAll() int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return ran
		}
		latest := m.now
		for _, t := range m.pending {
			if t.at > latest {
				latest = t.at
			}
		}
		d := latest - m.now
		m.mu.Unlock()
		n := m.Advance(d)
		if n == 0 {
			return ran
		}
		ran += n
	}
}

func (m *ManualScheduler) popDue(now time.Duration) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.canceled {
			live = append(live, t)
		}
	}
	m.pending = live
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].at != m.pending[j].at {
			return m.pending[i].at < m.pending[j].at
		}
		return m.pending[i].seq < m.pending[j].seq
	})
	if len(m.pending) == 0 || m.pending[0].at > now {
		return nil
	}
	t := m.pending[0]
	m.pending = m.pending[1:]
	return t
}
