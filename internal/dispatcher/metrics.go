package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/meshstorm/internal/operator"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-operator metrics
	opMetrics map[string]*OpMetrics

	// Global counters
	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64

	// Timing
	totalDuration time.Duration
}

// OpMetrics holds metrics for a specific operator.
type OpMetrics struct {
	Name          string
	DispatchCount uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastStatus    operator.Status
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		opMetrics: make(map[string]*OpMetrics),
	}
}

// RecordDispatch records a dispatch event.
func (m *Metrics) RecordDispatch(name string, duration time.Duration, status operator.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration

	if status == operator.StatusError {
		m.totalErrors++
	}

	om := m.opMetrics[name]
	if om == nil {
		om = &OpMetrics{
			Name:        name,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.opMetrics[name] = om
	}

	om.DispatchCount++
	om.TotalDuration += duration
	om.LastStatus = status
	om.LastDispatch = time.Now()

	if duration < om.MinDuration {
		om.MinDuration = duration
	}
	if duration > om.MaxDuration {
		om.MaxDuration = duration
	}

	if status == operator.StatusError {
		om.ErrorCount++
	}
}

// RecordPanic records an operator panic.
func (m *Metrics) RecordPanic(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

// Stats is a point-in-time summary of dispatcher activity.
type Stats struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalDuration   time.Duration
}

// Snapshot returns the global counters.
func (m *Metrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalDuration:   m.totalDuration,
	}
}

// OpStats returns a copy of the metrics for one operator, or nil.
func (m *Metrics) OpStats(name string) *OpMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	om := m.opMetrics[name]
	if om == nil {
		return nil
	}
	cp := *om
	return &cp
}

// TopOps returns up to n operator metrics ordered by dispatch count.
func (m *Metrics) TopOps(n int) []OpMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]OpMetrics, 0, len(m.opMetrics))
	for _, om := range m.opMetrics {
		all = append(all, *om)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DispatchCount != all[j].DispatchCount {
			return all[i].DispatchCount > all[j].DispatchCount
		}
		return all[i].Name < all[j].Name
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Reset clears all collected metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opMetrics = make(map[string]*OpMetrics)
	m.totalDispatches = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalDuration = 0
}
