package webhook

import (
	"time"
)

// ServerOptions configures the snapshot webhook server
type ServerOptions struct {
	Port               int    // Server port (default: 5000)
	Host               string // Server host (default: "0.0.0.0")
	RateLimitPerMinute int    // Requests per minute per IP (default: 100)
}

// uploadRequest is the body of POST /upload_photo
type uploadRequest struct {
	Session string `json:"session"`
	Image   string `json:"image"`
}

// apiResponse is the uniform response envelope
type apiResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// EndpointMetrics tracks per-endpoint performance
type EndpointMetrics struct {
	Path                string  `json:"path"`
	TotalRequests       int64   `json:"totalRequests"`
	SuccessCount        int64   `json:"successCount"`
	FailureCount        int64   `json:"failureCount"`
	AverageResponseTime float64 `json:"averageResponseTime"` // milliseconds
	LastRequestAt       int64   `json:"lastRequestAt,omitempty"`
}

// rateLimitState tracks request timestamps per IP within the window
type rateLimitState struct {
	requests []time.Time
}
