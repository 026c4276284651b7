package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harun/snaplink/internal/relay"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Seconds(),
		"timestamp": time.Now().UnixMilli(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleUploadPhoto accepts a snapshot from the camera-link page and
// relays it to the owning user. The response contract is fixed:
// 200 {"ok":true}, 400 invalid json / missing fields / invalid image
// data / base64 decode failed, 404 invalid session, 500 telegram send
// failed. Anything unexpected becomes a generic 500.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := uuid.New().String()

	log := s.logger.With().
		Str("request_id", requestID).
		Str("path", r.URL.Path).
		Logger()

	// Check if shutting down
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	// Track in-flight request
	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check rate limit
	ip := s.getClientIP(r)
	if !s.rateLimiter.CheckLimit(ip) {
		retryAfter := s.rateLimiter.GetRetryAfter(ip)
		log.Warn().
			Str("ip", ip).
			Int("retryAfter", retryAfter).
			Msg("Rate limit exceeded")

		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.finish(log, startTime, false, http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid json"})
		return
	}

	err := s.deliverer.Deliver(r.Context(), req.Session, req.Image)
	if err != nil {
		status, body := classify(err)
		s.finish(log, startTime, false, status)
		writeJSON(w, status, body)
		return
	}

	s.finish(log, startTime, true, http.StatusOK)
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

// classify maps a delivery error to its HTTP response
func classify(err error) (int, apiResponse) {
	var relayErr *relay.Error
	if !errors.As(err, &relayErr) {
		return http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"}
	}

	body := apiResponse{OK: false, Error: relayErr.Reason, Detail: relayErr.Detail}

	switch relayErr.Class {
	case relay.ClassBadRequest:
		return http.StatusBadRequest, body
	case relay.ClassNotFound:
		return http.StatusNotFound, body
	default:
		return http.StatusInternalServerError, body
	}
}

// finish records metrics and logs one request outcome
func (s *Server) finish(log zerolog.Logger, startTime time.Time, success bool, status int) {
	duration := time.Since(startTime).Milliseconds()
	s.metricsTracker.Track("/upload_photo", success, float64(duration))

	if success {
		log.Info().Int64("duration", duration).Int("status", status).Msg("Snapshot request completed")
	} else {
		log.Warn().Int64("duration", duration).Int("status", status).Msg("Snapshot request rejected")
	}
}
