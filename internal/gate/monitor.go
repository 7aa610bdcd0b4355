package gate

import (
	"context"
	"time"

	"github.com/nhle/greenspace-sync/internal/model"
)

// DefaultTick is how often the monitor re-evaluates gating.
const DefaultTick = 500 * time.Millisecond

// Evaluations maps work item id to the gate result for its next
// transition. Items with no forward transition are absent.
type Evaluations map[string]Result

// Monitor periodically re-evaluates the next transition of every item and
// publishes the results when they change, so views never compute gating
// inline.
type Monitor struct {
	gate     *Gate
	items    func() []model.WorkItem
	interval time.Duration
	out      chan Evaluations
	last     map[string]fingerprint
}

type fingerprint struct {
	permitted bool
	message   string
	minutes   int64
}

// NewMonitor creates a Monitor over the item source. items is called on
// every tick and must be safe for concurrent use.
func NewMonitor(g *Gate, items func() []model.WorkItem, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &Monitor{
		gate:     g,
		items:    items,
		interval: interval,
		out:      make(chan Evaluations, 1),
	}
}

// Updates returns the channel evaluations are published on.
func (m *Monitor) Updates() <-chan Evaluations {
	return m.out
}

// Run ticks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.publish()
		}
	}
}

func (m *Monitor) publish() {
	ev, changed := m.Tick()
	if !changed {
		return
	}
	// Replace any unread evaluation so the reader always sees the latest.
	select {
	case <-m.out:
	default:
	}
	select {
	case m.out <- ev:
	default:
	}
}

// Tick evaluates every item once and reports whether anything visible
// changed since the previous tick.
func (m *Monitor) Tick() (Evaluations, bool) {
	items := m.items()
	ev := make(Evaluations, len(items))
	fps := make(map[string]fingerprint, len(items))

	for _, item := range items {
		target, targetOrder, ok := Next(item)
		if !ok {
			continue
		}
		res := m.gate.RequestTransition(item, target, targetOrder)
		ev[item.ID] = res

		fp := fingerprint{permitted: res.Permitted, message: res.Message}
		if res.Decision != nil {
			fp.minutes = int64(res.Decision.Remaining / time.Minute)
		}
		fps[item.ID] = fp
	}

	changed := m.last == nil || len(fps) != len(m.last)
	if !changed {
		for id, fp := range fps {
			if prev, ok := m.last[id]; !ok || prev != fp {
				changed = true
				break
			}
		}
	}
	m.last = fps
	return ev, changed
}
