package task

import (
	"sync"
	"time"
)

// HealthStatus is the outcome of the most recent runs of one operation.
type HealthStatus struct {
	Healthy     bool
	Runs        int
	Failures    int
	LastCheck   time.Time
	LastSuccess time.Time
	LastError   error
	Message     string
}

// Health tracks the outcome of task runs per operation.
type Health struct {
	mu         sync.RWMutex
	operations map[Operation]*HealthStatus
}

// NewHealth creates a new health tracker.
func NewHealth() *Health {
	return &Health{
		operations: make(map[Operation]*HealthStatus),
	}
}

// SetHealthy records a successful run.
func (h *Health) SetHealthy(op Operation, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	s := h.entry(op)
	s.Healthy = true
	s.Runs++
	s.LastCheck = now
	s.LastSuccess = now
	s.LastError = nil
	s.Message = message
}

// SetUnhealthy records a failed run.
func (h *Health) SetUnhealthy(op Operation, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.entry(op)
	s.Healthy = false
	s.Runs++
	s.Failures++
	s.LastCheck = time.Now()
	s.LastError = err
	s.Message = err.Error()
}

func (h *Health) entry(op Operation) *HealthStatus {
	s, ok := h.operations[op]
	if !ok {
		s = &HealthStatus{}
		h.operations[op] = s
	}
	return s
}

// GetStatus returns a copy of an operation's status, or nil if it never ran.
func (h *Health) GetStatus(op Operation) *HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if s, ok := h.operations[op]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// GetAllStatuses returns a copy of every operation's status.
func (h *Health) GetAllStatuses() map[Operation]*HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make(map[Operation]*HealthStatus, len(h.operations))
	for op, s := range h.operations {
		cp := *s
		result[op] = &cp
	}
	return result
}

// IsOverallHealthy returns true if the last run of every operation succeeded.
func (h *Health) IsOverallHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.operations {
		if !s.Healthy {
			return false
		}
	}
	return true
}
