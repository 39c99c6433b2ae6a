package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/tick"
)

// HoTSpec describes one heal-over-time application.
type HoTSpec struct {
	Name string
	// PerTick is the heal delivered at each boundary per stack.
	PerTick  float64
	Duration float64
	Interval float64
}

// hot is the state of one running heal-over-time.
type hot struct {
	spec   HoTSpec
	stacks int
	task   *tick.Task
}

// HealOverTime tracks the named heal-over-time effects on one defender.
// Reapplying a running name raises its stack multiplier up to the bound and
// restarts the remaining duration on the same scheduled task.
type HealOverTime struct {
	defender  Defender
	scheduler *tick.Scheduler
	maxStacks int
	active    map[string]*hot
	logger    *zap.Logger
}

// NewHealOverTime creates a manager that schedules onto s. maxStacks < 1 is treated as 1.
func NewHealOverTime(d Defender, s *tick.Scheduler, maxStacks int, logger *zap.Logger) *HealOverTime {
	if maxStacks < 1 {
		maxStacks = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealOverTime{
		defender:  d,
		scheduler: s,
		maxStacks: maxStacks,
		active:    make(map[string]*hot),
		logger:    logger,
	}
}

func taskName(name string) string { return "hot/" + name }

// Apply starts spec or, when spec.Name is already running, stacks and
// restarts it. A reapplication with a different interval replaces the
// scheduled task and keeps the stack count. It returns the resulting stack
// count.
//
// Precondition: spec.Interval > 0.
func (m *HealOverTime) Apply(spec HoTSpec, sourceID string) int {
	if h, ok := m.active[spec.Name]; ok && !h.task.Done() {
		if h.stacks < m.maxStacks {
			h.stacks++
		}
		h.spec.PerTick = spec.PerTick
		if spec.Interval != h.spec.Interval {
			h.task.Cancel()
			h.spec.Interval = spec.Interval
			h.spec.Duration = spec.Duration
			m.schedule(h, sourceID)
		} else {
			h.task.Restart(spec.Duration)
		}
		m.logger.Debug("heal over time restarted",
			zap.String("name", spec.Name),
			zap.Int("stacks", h.stacks),
			zap.Float64("interval", h.spec.Interval),
		)
		return h.stacks
	}

	h := &hot{spec: spec, stacks: 1}
	m.active[spec.Name] = h
	m.schedule(h, sourceID)
	m.logger.Debug("heal over time started", zap.String("name", spec.Name))
	return 1
}

func (m *HealOverTime) schedule(h *hot, sourceID string) {
	name := h.spec.Name
	h.task = tick.NewTask(taskName(name), h.spec.Duration, h.spec.Interval, func(*tick.Task) {
		Heal(m.defender, h.spec.PerTick*float64(h.stacks), sourceID)
	}).OnDone(func(*tick.Task) {
		if m.active[name] == h {
			delete(m.active, name)
		}
	})
	m.scheduler.Schedule(h.task)
}

// Stacks returns the stack count of the running heal named name, or 0.
func (m *HealOverTime) Stacks(name string) int {
	if h, ok := m.active[name]; ok && !h.task.Done() {
		return h.stacks
	}
	return 0
}

// Active reports whether a heal named name is running.
func (m *HealOverTime) Active(name string) bool {
	return m.Stacks(name) > 0
}

// Cancel stops the heal named name and reports whether it was running.
func (m *HealOverTime) Cancel(name string) bool {
	h, ok := m.active[name]
	if !ok {
		return false
	}
	delete(m.active, name)
	running := !h.task.Done()
	m.scheduler.Cancel(taskName(name))
	return running
}

// CancelAll stops every running heal and returns how many were running.
func (m *HealOverTime) CancelAll() int {
	n := 0
	for name := range m.active {
		if m.scheduler.Cancel(taskName(name)) {
			n++
		}
	}
	clear(m.active)
	return n
}
