package link

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/snaplink/internal/uploader"
)

type fakePutter struct {
	puts []putCall
	err  error
}

type putCall struct {
	sessionID string
	userID    int64
	imageRef  string
}

func (f *fakePutter) Put(_ context.Context, sessionID string, userID int64, imageRef string) error {
	if f.err != nil {
		return f.err
	}
	f.puts = append(f.puts, putCall{sessionID, userID, imageRef})
	return nil
}

const testHost = "http://localhost/my_shop"

func TestIssue_RemoteSuccess(t *testing.T) {
	putter := &fakePutter{}
	issuer := New(putter, testHost, zerolog.Nop())

	outcome := uploader.Outcome{
		RemoteSucceeded: true,
		PublicURL:       "http://cdn.example.com/abc.jpg",
	}

	links, err := issuer.Issue(context.Background(), outcome, 42)
	require.NoError(t, err)

	assert.Equal(t, "http://cdn.example.com/abc.jpg", links.ShareLink)
	assert.Equal(t, "http://cdn.example.com/abc.jpg", links.DirectLink)
	assert.True(t, links.RemoteSucceeded)
	assert.Empty(t, links.SessionID)

	// No session row for a remote-hosted image
	assert.Empty(t, putter.puts)
}

func TestIssue_FallbackMintsSession(t *testing.T) {
	putter := &fakePutter{}
	issuer := New(putter, testHost, zerolog.Nop())

	outcome := uploader.Outcome{
		RemoteSucceeded: false,
		PublicURL:       "http://localhost/my_shop/uploads/image_42_1.jpg",
		Err:             "connection refused",
	}

	links, err := issuer.Issue(context.Background(), outcome, 42)
	require.NoError(t, err)

	require.Len(t, putter.puts, 1)
	put := putter.puts[0]
	assert.Equal(t, int64(42), put.userID)
	assert.Equal(t, outcome.PublicURL, put.imageRef)
	assert.Equal(t, links.SessionID, put.sessionID)

	assert.Equal(t, testHost+"/i/"+links.SessionID, links.ShareLink)
	assert.Equal(t, outcome.PublicURL, links.DirectLink)
	assert.False(t, links.RemoteSucceeded)
	assert.Equal(t, "connection refused", links.Err)

	// URL-safe token with comfortable entropy
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`), links.SessionID)
}

func TestIssue_TokensAreUnique(t *testing.T) {
	putter := &fakePutter{}
	issuer := New(putter, testHost, zerolog.Nop())

	outcome := uploader.Outcome{
		PublicURL: "http://localhost/my_shop/uploads/img.jpg",
	}

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		links, err := issuer.Issue(context.Background(), outcome, int64(i))
		require.NoError(t, err)

		_, dup := seen[links.SessionID]
		require.False(t, dup, "token %q issued twice", links.SessionID)
		seen[links.SessionID] = struct{}{}
	}
}

func TestIssue_StoreFailure(t *testing.T) {
	putter := &fakePutter{err: errors.New("disk full")}
	issuer := New(putter, testHost, zerolog.Nop())

	_, err := issuer.Issue(context.Background(), uploader.Outcome{PublicURL: "http://x/y.jpg"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
