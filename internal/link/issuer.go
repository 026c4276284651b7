// Package link turns an upload outcome into the pair of links shown to
// the user. A remote-hosted image needs no indirection; a fallback
// image gets a session-backed short link so the user still has a
// stable URL, even though that URL is not guaranteed to be reachable.
package link

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/harun/snaplink/internal/uploader"
)

// SessionPutter is the slice of the session store the issuer needs
type SessionPutter interface {
	Put(ctx context.Context, sessionID string, userID int64, imageRef string) error
}

// Links is what gets presented to the user after a photo is handled.
// RemoteSucceeded and Err are carried along so the presentation layer
// can word the reply differently for the fallback path.
type Links struct {
	ShareLink       string
	DirectLink      string
	SessionID       string // empty when no session was minted
	RemoteSucceeded bool
	Err             string // transport error detail, if any
}

// Issuer mints sessions and builds share/direct links
type Issuer struct {
	sessions SessionPutter
	host     string
	logger   zerolog.Logger
}

// New creates a link issuer. host must already be normalized.
func New(sessions SessionPutter, host string, logger zerolog.Logger) *Issuer {
	return &Issuer{
		sessions: sessions,
		host:     host,
		logger:   logger.With().Str("component", "link").Logger(),
	}
}

// Issue produces the outward-facing links for one resolved upload.
//
// When the remote host accepted the image, both links are the remote
// URL and no session row is created. Otherwise a fresh token is minted
// and stored, the share link points at the token, and the direct link
// stays the assumed default URL.
func (i *Issuer) Issue(ctx context.Context, outcome uploader.Outcome, userID int64) (Links, error) {
	links := Links{
		DirectLink:      outcome.PublicURL,
		RemoteSucceeded: outcome.RemoteSucceeded,
		Err:             outcome.Err,
	}

	if outcome.RemoteSucceeded {
		links.ShareLink = outcome.PublicURL
		return links, nil
	}

	// Default nanoid: 21 chars over a 64-symbol URL-safe alphabet
	token, err := gonanoid.New()
	if err != nil {
		return Links{}, fmt.Errorf("failed to mint session token: %w", err)
	}

	if err := i.sessions.Put(ctx, token, userID, outcome.PublicURL); err != nil {
		return Links{}, fmt.Errorf("failed to store session: %w", err)
	}

	links.SessionID = token
	links.ShareLink = fmt.Sprintf("%s/i/%s", i.host, token)

	i.logger.Info().
		Str("session_id", token).
		Int64("user_id", userID).
		Msg("Fallback session minted")

	return links, nil
}
