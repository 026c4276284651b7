// Package relay pushes externally captured snapshots back to the
// Telegram user who owns the session token the capture page carries.
package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/harun/snaplink/internal/store"
)

const (
	snapshotFilename = "snapshot.jpg"
	snapshotCaption  = "📸 New snapshot from camera link"
)

// dataURIPattern matches "data:image/<subtype>;base64,<payload>"
var dataURIPattern = regexp.MustCompile(`^data:(image/[^;]+);base64,(.*)$`)

// SessionGetter is the slice of the session store the relay needs
type SessionGetter interface {
	Get(ctx context.Context, sessionID string) (store.Session, error)
}

// PhotoSender delivers raw image bytes to a chat. Implemented by the
// Telegram bot; faked in tests.
type PhotoSender interface {
	SendPhotoBytes(chatID int64, filename string, data []byte, caption string) error
}

// Relay resolves inbound snapshots to their owning user and delivers
// them. Every failure is terminal for that request; nothing retries.
type Relay struct {
	sessions SessionGetter
	sender   PhotoSender
	logger   zerolog.Logger
}

// New creates a snapshot relay
func New(sessions SessionGetter, sender PhotoSender, logger zerolog.Logger) *Relay {
	return &Relay{
		sessions: sessions,
		sender:   sender,
		logger:   logger.With().Str("component", "relay").Logger(),
	}
}

// Deliver validates one inbound snapshot submission and forwards the
// decoded image to the session owner. Validation order is fixed:
// missing fields, unknown session, malformed data URI, bad base64,
// then the actual send. Each step fails with its own *Error class.
func (r *Relay) Deliver(ctx context.Context, sessionID string, imageData string) error {
	if sessionID == "" || imageData == "" {
		return badRequest("missing fields")
	}

	sess, err := r.sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		r.logger.Debug().Str("session_id", sessionID).Msg("Snapshot for unknown session")
		return notFound("invalid session")
	}
	if err != nil {
		return fmt.Errorf("session lookup failed: %w", err)
	}

	m := dataURIPattern.FindStringSubmatch(imageData)
	if m == nil {
		return badRequest("invalid image data")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return badRequestDetail("base64 decode failed", err)
	}

	if err := r.sender.SendPhotoBytes(sess.UserID, snapshotFilename, imageBytes, snapshotCaption); err != nil {
		r.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Int64("user_id", sess.UserID).
			Msg("Snapshot delivery failed")
		return deliveryFailed("telegram send failed", err)
	}

	r.logger.Info().
		Str("session_id", sessionID).
		Int64("user_id", sess.UserID).
		Str("mime", m[1]).
		Int("bytes", len(imageBytes)).
		Msg("Snapshot delivered")

	return nil
}
