package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/snaplink/internal/link"
	"github.com/harun/snaplink/internal/uploader"
)

type fakeMessenger struct {
	texts       []string
	markupTexts []string
	markups     []tgbotapi.InlineKeyboardMarkup
}

func (f *fakeMessenger) SendMessage(chatID int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	f.markupTexts = append(f.markupTexts, text)
	f.markups = append(f.markups, markup)
	return nil
}

type fakeDownloader struct {
	dests []string
	err   error
}

func (f *fakeDownloader) DownloadFile(fileID string, destPath string) (*MediaFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.dests = append(f.dests, destPath)
	return &MediaFile{FileID: fileID, FilePath: destPath}, nil
}

type fakeResolver struct {
	outcome uploader.Outcome
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, _ string) uploader.Outcome {
	return f.outcome
}

type fakeIssuer struct {
	links link.Links
	err   error
	users []int64
}

func (f *fakeIssuer) Issue(_ context.Context, _ uploader.Outcome, userID int64) (link.Links, error) {
	f.users = append(f.users, userID)
	return f.links, f.err
}

func photoUpdate() tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 42, UserName: "testuser"},
			Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
			Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "large", Width: 800},
			},
		},
	}
}

func TestHandlePhoto_Success(t *testing.T) {
	messenger := &fakeMessenger{}
	issuer := &fakeIssuer{
		links: link.Links{
			ShareLink:       "http://cdn.example.com/abc.jpg",
			DirectLink:      "http://cdn.example.com/abc.jpg",
			RemoteSucceeded: true,
		},
	}
	downloader := &fakeDownloader{}

	p := NewPhotos(messenger, downloader, &fakeResolver{}, issuer, t.TempDir(), zerolog.Nop())

	err := p.HandlePhoto(photoUpdate())
	require.NoError(t, err)

	// Largest photo size downloaded into the uploads dir
	require.Len(t, downloader.dests, 1)
	assert.Contains(t, downloader.dests[0], "image_42_")
	assert.True(t, strings.HasSuffix(downloader.dests[0], ".jpg"))

	assert.Equal(t, []int64{42}, issuer.users)

	require.Len(t, messenger.markupTexts, 1)
	assert.Contains(t, messenger.markupTexts[0], "✅ Image uploaded to host successfully!")
	assert.Empty(t, messenger.texts)

	// Two rows: share link, direct link
	markup := messenger.markups[0]
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Share Link", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "http://cdn.example.com/abc.jpg", *markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "Direct Image Link", markup.InlineKeyboard[1][0].Text)
}

func TestHandlePhoto_FallbackWording(t *testing.T) {
	messenger := &fakeMessenger{}
	issuer := &fakeIssuer{
		links: link.Links{
			ShareLink:  "http://localhost/my_shop/i/tok123",
			DirectLink: "http://localhost/my_shop/uploads/image_42_1.jpg",
			SessionID:  "tok123",
			Err:        "connection refused",
		},
	}

	p := NewPhotos(messenger, &fakeDownloader{}, &fakeResolver{}, issuer, t.TempDir(), zerolog.Nop())

	require.NoError(t, p.HandlePhoto(photoUpdate()))

	require.Len(t, messenger.markupTexts, 1)
	text := messenger.markupTexts[0]
	assert.Contains(t, text, "⚠️ Remote upload failed")
	assert.Contains(t, text, "Local Link: http://localhost/my_shop/i/tok123")
	assert.Contains(t, text, "Direct (assumed) URL: http://localhost/my_shop/uploads/image_42_1.jpg")
	assert.Contains(t, text, "(Upload to host failed: connection refused)")
}

func TestHandlePhoto_DownloadFailureReportedToChat(t *testing.T) {
	messenger := &fakeMessenger{}
	downloader := &fakeDownloader{err: errors.New("file too big")}

	p := NewPhotos(messenger, downloader, &fakeResolver{}, &fakeIssuer{}, t.TempDir(), zerolog.Nop())

	// Handler error is reported to the user, not propagated
	err := p.HandlePhoto(photoUpdate())
	require.NoError(t, err)

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "❌ Error:")
	assert.Contains(t, messenger.texts[0], "file too big")
	assert.Empty(t, messenger.markupTexts)
}

func TestHandlePhoto_IgnoresNonPhotoUpdates(t *testing.T) {
	messenger := &fakeMessenger{}
	p := NewPhotos(messenger, &fakeDownloader{}, &fakeResolver{}, &fakeIssuer{}, t.TempDir(), zerolog.Nop())

	assert.NoError(t, p.HandlePhoto(tgbotapi.Update{}))
	assert.NoError(t, p.HandlePhoto(tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 1},
			Chat: &tgbotapi.Chat{ID: 1},
			Text: "no photo here",
		},
	}))

	assert.Empty(t, messenger.texts)
	assert.Empty(t, messenger.markupTexts)
}

func TestReplyText_FallbackWithoutDetail(t *testing.T) {
	// Ambiguous remote responses carry no detail; the reply must not
	// show an empty failure suffix
	text := replyText(link.Links{
		ShareLink:  "http://h/i/tok",
		DirectLink: "http://h/uploads/x.jpg",
	})

	assert.Contains(t, text, "⚠️ Remote upload failed")
	assert.NotContains(t, text, "(Upload to host failed:")
}

func TestLargestPhoto(t *testing.T) {
	assert.Equal(t, "", LargestPhoto(nil))
	assert.Equal(t, "", LargestPhoto(&tgbotapi.Message{}))

	msg := &tgbotapi.Message{
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small"},
			{FileID: "large"},
		},
	}
	assert.Equal(t, "large", LargestPhoto(msg))
}
