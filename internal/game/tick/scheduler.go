package tick

import (
	"go.uber.org/zap"
)

// Scheduler owns an actor's named tasks and advances them once per frame.
// Scheduling a name that is already running replaces the old task.
//
// Scheduler is not safe for concurrent use; the owning actor serialises access.
type Scheduler struct {
	tasks  []*Task
	logger *zap.Logger
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Schedule adds t, canceling any running task with the same name.
func (s *Scheduler) Schedule(t *Task) *Task {
	if old := s.Get(t.Name()); old != nil && old != t {
		old.Cancel()
	}
	if !s.contains(t) {
		s.tasks = append(s.tasks, t)
	}
	s.logger.Debug("task scheduled",
		zap.String("task", t.Name()),
		zap.Int("ticks", t.Ticks()),
	)
	return t
}

// Get returns the running task named name, or nil.
func (s *Scheduler) Get(name string) *Task {
	for _, t := range s.tasks {
		if t.Name() == name && !t.Done() {
			return t
		}
	}
	return nil
}

// Cancel cancels the running task named name and reports whether one existed.
func (s *Scheduler) Cancel(name string) bool {
	t := s.Get(name)
	if t == nil {
		return false
	}
	t.Cancel()
	s.logger.Debug("task canceled", zap.String("task", name))
	return true
}

// CancelAll cancels every task and returns how many were still running.
func (s *Scheduler) CancelAll() int {
	n := 0
	for _, t := range s.tasks {
		if !t.Done() {
			n++
		}
		t.Cancel()
	}
	s.tasks = nil
	return n
}

// Len returns the number of running tasks.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.tasks {
		if !t.Done() {
			n++
		}
	}
	return n
}

// Advance advances every task by dt. Tasks scheduled by callbacks during
// Advance start on the next call; finished tasks are dropped after the scan.
func (s *Scheduler) Advance(dt float64) {
	snapshot := make([]*Task, len(s.tasks))
	copy(snapshot, s.tasks)
	for _, t := range snapshot {
		t.Advance(dt)
	}
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Done() {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = kept
}

func (s *Scheduler) contains(t *Task) bool {
	for _, cur := range s.tasks {
		if cur == t {
			return true
		}
	}
	return false
}
