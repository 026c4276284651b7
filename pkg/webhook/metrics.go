package webhook

import (
	"sync"
	"time"
)

// MetricsTracker tracks per-endpoint request metrics
type MetricsTracker struct {
	metrics map[string]*EndpointMetrics
	mu      sync.RWMutex
}

// NewMetricsTracker creates a new metrics tracker
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{
		metrics: make(map[string]*EndpointMetrics),
	}
}

// Track records one request against an endpoint
func (mt *MetricsTracker) Track(path string, success bool, durationMs float64) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	m, exists := mt.metrics[path]
	if !exists {
		m = &EndpointMetrics{Path: path}
		mt.metrics[path] = m
	}

	m.TotalRequests++
	if success {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}

	// Running average
	m.AverageResponseTime = (m.AverageResponseTime*float64(m.TotalRequests-1) + durationMs) / float64(m.TotalRequests)
	m.LastRequestAt = time.Now().UnixMilli()
}

// GetMetrics returns all metrics
func (mt *MetricsTracker) GetMetrics() []EndpointMetrics {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	result := make([]EndpointMetrics, 0, len(mt.metrics))
	for _, m := range mt.metrics {
		result = append(result, *m)
	}
	return result
}

// GetMetricsForPath returns metrics for one endpoint, or nil
func (mt *MetricsTracker) GetMetricsForPath(path string) *EndpointMetrics {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	m, exists := mt.metrics[path]
	if !exists {
		return nil
	}

	// Return a copy
	result := *m
	return &result
}
