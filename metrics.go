package fhirmodel

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks constraint evaluation metrics using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Instance counts
	instancesTotal atomic.Uint64
	instancesValid atomic.Uint64

	// Timing (stored as nanoseconds)
	evalTimeTotal atomic.Uint64
	evalTimeMin   atomic.Uint64
	evalTimeMax   atomic.Uint64

	// Compiled expression cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Violations by severity
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64

	// Expression failures (compile or evaluation errors)
	evalErrors atomic.Uint64

	// Per-constraint counters
	constraints sync.Map // map[string]*constraintMetrics
}

type constraintMetrics struct {
	evaluations atomic.Uint64
	failures    atomic.Uint64
	totalTime   atomic.Uint64 // nanoseconds
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.evalTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordInstance records a completed evaluation of one instance.
func (m *Metrics) RecordInstance(duration time.Duration, valid bool) {
	m.instancesTotal.Add(1)
	if valid {
		m.instancesValid.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations are non-negative
	m.evalTimeTotal.Add(ns)

	for {
		old := m.evalTimeMin.Load()
		if ns >= old || m.evalTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.evalTimeMax.Load()
		if ns <= old || m.evalTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordConstraint records one evaluation of the constraint with the given id.
func (m *Metrics) RecordConstraint(id string, duration time.Duration, passed bool) {
	cm := m.constraintMetrics(id)
	cm.evaluations.Add(1)
	cm.totalTime.Add(uint64(duration.Nanoseconds())) //nolint:gosec // durations are non-negative
	if !passed {
		cm.failures.Add(1)
	}
}

// RecordViolation records a reported violation. Fatal violations count as errors.
func (m *Metrics) RecordViolation(fatal bool) {
	if fatal {
		m.errorsTotal.Add(1)
		return
	}
	m.warningsTotal.Add(1)
}

// RecordEvalError records an expression that could not be compiled or evaluated.
func (m *Metrics) RecordEvalError() {
	m.evalErrors.Add(1)
}

// RecordCacheHit records a compiled expression cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a compiled expression cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

func (m *Metrics) constraintMetrics(id string) *constraintMetrics {
	if v, ok := m.constraints.Load(id); ok {
		return v.(*constraintMetrics)
	}
	actual, _ := m.constraints.LoadOrStore(id, &constraintMetrics{})
	return actual.(*constraintMetrics)
}

// --- Query Methods ---

// InstancesTotal returns the number of evaluated instances.
func (m *Metrics) InstancesTotal() uint64 {
	return m.instancesTotal.Load()
}

// InstancesValid returns the number of instances without error-level violations.
func (m *Metrics) InstancesValid() uint64 {
	return m.instancesValid.Load()
}

// ValidRate returns the fraction of valid instances (0.0 to 1.0).
func (m *Metrics) ValidRate() float64 {
	total := m.instancesTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.instancesValid.Load()) / float64(total)
}

// AverageTime returns the average evaluation duration per instance.
func (m *Metrics) AverageTime() time.Duration {
	total := m.instancesTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.evalTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinTime returns the minimum evaluation duration per instance.
func (m *Metrics) MinTime() time.Duration {
	minVal := m.evalTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // nanoseconds within int64 range
}

// MaxTime returns the maximum evaluation duration per instance.
func (m *Metrics) MaxTime() time.Duration {
	return time.Duration(m.evalTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// CacheHitRate returns the compiled expression cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ErrorsTotal returns the number of error-level violations.
func (m *Metrics) ErrorsTotal() uint64 {
	return m.errorsTotal.Load()
}

// WarningsTotal returns the number of warning-level violations.
func (m *Metrics) WarningsTotal() uint64 {
	return m.warningsTotal.Load()
}

// EvalErrors returns the number of expressions that failed to compile or evaluate.
func (m *Metrics) EvalErrors() uint64 {
	return m.evalErrors.Load()
}

// ConstraintStats holds counters for a single constraint.
type ConstraintStats struct {
	ID          string
	Evaluations uint64
	Failures    uint64
	AvgTime     time.Duration
}

// ConstraintStats returns statistics for a single constraint.
func (m *Metrics) ConstraintStats(id string) (ConstraintStats, bool) {
	v, ok := m.constraints.Load(id)
	if !ok {
		return ConstraintStats{ID: id}, false
	}
	return v.(*constraintMetrics).stats(id), true
}

// AllConstraintStats returns statistics for every evaluated constraint, sorted by id.
func (m *Metrics) AllConstraintStats() []ConstraintStats {
	var stats []ConstraintStats
	m.constraints.Range(func(key, value any) bool {
		stats = append(stats, value.(*constraintMetrics).stats(key.(string)))
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	return stats
}

func (cm *constraintMetrics) stats(id string) ConstraintStats {
	n := cm.evaluations.Load()
	s := ConstraintStats{
		ID:          id,
		Evaluations: n,
		Failures:    cm.failures.Load(),
	}
	if n > 0 {
		s.AvgTime = time.Duration(cm.totalTime.Load() / n) //nolint:gosec // nanoseconds within int64 range
	}
	return s
}

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp      time.Time         `json:"timestamp"`
	InstancesTotal uint64            `json:"instances_total"`
	InstancesValid uint64            `json:"instances_valid"`
	AvgTimeNs      uint64            `json:"avg_time_ns"`
	CacheHitRate   float64           `json:"cache_hit_rate"`
	ErrorsTotal    uint64            `json:"errors_total"`
	WarningsTotal  uint64            `json:"warnings_total"`
	EvalErrors     uint64            `json:"eval_errors"`
	Constraints    []ConstraintStats `json:"constraints,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:      time.Now(),
		InstancesTotal: m.InstancesTotal(),
		InstancesValid: m.InstancesValid(),
		AvgTimeNs:      uint64(m.AverageTime().Nanoseconds()), //nolint:gosec // durations are non-negative
		CacheHitRate:   m.CacheHitRate(),
		ErrorsTotal:    m.ErrorsTotal(),
		WarningsTotal:  m.WarningsTotal(),
		EvalErrors:     m.EvalErrors(),
		Constraints:    m.AllConstraintStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.instancesTotal.Store(0)
	m.instancesValid.Store(0)
	m.evalTimeTotal.Store(0)
	m.evalTimeMin.Store(^uint64(0))
	m.evalTimeMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.errorsTotal.Store(0)
	m.warningsTotal.Store(0)
	m.evalErrors.Store(0)
	m.constraints.Range(func(key, _ any) bool {
		m.constraints.Delete(key)
		return true
	})
}
