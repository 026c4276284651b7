package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/snaplink/internal/store"
)

type fakeSessions struct {
	sessions map[string]store.Session
	gets     int
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (store.Session, error) {
	f.gets++
	sess, ok := f.sessions[sessionID]
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	return sess, nil
}

type fakeSender struct {
	calls []sendCall
	err   error
}

type sendCall struct {
	chatID   int64
	filename string
	data     []byte
	caption  string
}

func (f *fakeSender) SendPhotoBytes(chatID int64, filename string, data []byte, caption string) error {
	f.calls = append(f.calls, sendCall{chatID, filename, data, caption})
	return f.err
}

func newTestRelay(sender *fakeSender) (*Relay, *fakeSessions) {
	sessions := &fakeSessions{
		sessions: map[string]store.Session{
			"valid-session": {SessionID: "valid-session", UserID: 42, OriginalImage: "http://host/uploads/a.jpg"},
		},
	}
	return New(sessions, sender, zerolog.Nop()), sessions
}

func requireClass(t *testing.T, err error, class Class, reason string) {
	t.Helper()

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, class, relayErr.Class)
	assert.Equal(t, reason, relayErr.Reason)
}

func TestDeliver_MissingFields(t *testing.T) {
	sender := &fakeSender{}
	r, sessions := newTestRelay(sender)

	tests := []struct {
		name    string
		session string
		image   string
	}{
		{"no session", "", "data:image/png;base64,aGk="},
		{"no image", "valid-session", ""},
		{"neither", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Deliver(context.Background(), tt.session, tt.image)
			requireClass(t, err, ClassBadRequest, "missing fields")
		})
	}

	// Validation fails before the store is consulted
	assert.Zero(t, sessions.gets)
	assert.Empty(t, sender.calls)
}

func TestDeliver_UnknownSession(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	err := r.Deliver(context.Background(), "no-such-session", "data:image/png;base64,aGk=")
	requireClass(t, err, ClassNotFound, "invalid session")

	// No delivery attempt for an unknown session
	assert.Empty(t, sender.calls)
}

func TestDeliver_InvalidImageData(t *testing.T) {
	sender := &fakeSender{}
	r, sessions := newTestRelay(sender)

	err := r.Deliver(context.Background(), "valid-session", "not-a-data-uri")
	requireClass(t, err, ClassBadRequest, "invalid image data")

	// Only the initial lookup happened, no send
	assert.Equal(t, 1, sessions.gets)
	assert.Empty(t, sender.calls)
}

func TestDeliver_NonImageDataURI(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	err := r.Deliver(context.Background(), "valid-session", "data:text/plain;base64,aGk=")
	requireClass(t, err, ClassBadRequest, "invalid image data")
	assert.Empty(t, sender.calls)
}

func TestDeliver_Base64DecodeFailure(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	err := r.Deliver(context.Background(), "valid-session", "data:image/png;base64,!!!not-base64!!!")
	requireClass(t, err, ClassBadRequest, "base64 decode failed")

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.NotEmpty(t, relayErr.Detail)
	assert.Empty(t, sender.calls)
}

func TestDeliver_Success(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	err := r.Deliver(context.Background(), "valid-session", "data:image/png;base64,iVBORw0KGgo=")
	require.NoError(t, err)

	// Exactly one delivery with the decoded byte sequence
	require.Len(t, sender.calls, 1)
	call := sender.calls[0]
	assert.Equal(t, int64(42), call.chatID)
	assert.Equal(t, "snapshot.jpg", call.filename)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, call.data)
	assert.Equal(t, "📸 New snapshot from camera link", call.caption)
}

func TestDeliver_SendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("bot was blocked by the user")}
	r, _ := newTestRelay(sender)

	err := r.Deliver(context.Background(), "valid-session", "data:image/png;base64,iVBORw0KGgo=")
	requireClass(t, err, ClassDeliveryFailed, "telegram send failed")

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Contains(t, relayErr.Detail, "blocked")

	// One attempt, no retry
	assert.Len(t, sender.calls, 1)
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "invalid session", notFound("invalid session").Error())
	assert.Equal(t, "telegram send failed: chat not found",
		deliveryFailed("telegram send failed", errors.New("chat not found")).Error())
}
