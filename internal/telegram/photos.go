package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/harun/snaplink/internal/link"
	"github.com/harun/snaplink/internal/uploader"
)

// Resolver resolves a locally saved image to its public URL
type Resolver interface {
	Resolve(ctx context.Context, localPath string, filename string) uploader.Outcome
}

// Issuer turns an upload outcome into presentable links
type Issuer interface {
	Issue(ctx context.Context, outcome uploader.Outcome, userID int64) (link.Links, error)
}

// Messenger is the outbound bot surface the photo flow uses
type Messenger interface {
	SendMessage(chatID int64, text string) error
	SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error
}

// Downloader fetches a Telegram file to local disk
type Downloader interface {
	DownloadFile(fileID string, destPath string) (*MediaFile, error)
}

// Photos implements the photo-to-link flow: download the image into
// the web uploads folder, resolve its public URL, and reply with the
// share/direct link pair.
type Photos struct {
	messenger  Messenger
	downloader Downloader
	resolver   Resolver
	issuer     Issuer
	uploadDir  string
	logger     zerolog.Logger
}

// NewPhotos creates the photo flow handler
func NewPhotos(messenger Messenger, downloader Downloader, resolver Resolver, issuer Issuer, uploadDir string, log zerolog.Logger) *Photos {
	return &Photos{
		messenger:  messenger,
		downloader: downloader,
		resolver:   resolver,
		issuer:     issuer,
		uploadDir:  uploadDir,
		logger:     log.With().Str("module", "photos").Logger(),
	}
}

// HandlePhoto processes an incoming photo message. Failures are
// reported back to the chat as a generic error; they never escape to
// the update loop.
func (p *Photos) HandlePhoto(update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	fileID := LargestPhoto(msg)
	if fileID == "" {
		return nil
	}

	p.logger.Debug().
		Int64("chat_id", msg.Chat.ID).
		Int64("user_id", msg.From.ID).
		Str("file_id", fileID).
		Msg("Photo received")

	if err := p.process(context.Background(), msg.From.ID, msg.Chat.ID, fileID); err != nil {
		p.logger.Error().
			Err(err).
			Int64("chat_id", msg.Chat.ID).
			Msg("Photo flow failed")

		return p.messenger.SendMessage(msg.Chat.ID, fmt.Sprintf("❌ Error: %v", err))
	}

	return nil
}

// process runs the download-resolve-issue-reply pipeline for one photo
func (p *Photos) process(ctx context.Context, userID int64, chatID int64, fileID string) error {
	// Unique filename from user id and timestamp
	filename := fmt.Sprintf("image_%d_%d.jpg", userID, time.Now().Unix())
	destPath := filepath.Join(p.uploadDir, filename)

	if _, err := p.downloader.DownloadFile(fileID, destPath); err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}

	outcome := p.resolver.Resolve(ctx, destPath, filename)

	links, err := p.issuer.Issue(ctx, outcome, userID)
	if err != nil {
		return err
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Share Link", links.ShareLink),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Direct Image Link", links.DirectLink),
		),
	)

	return p.messenger.SendMessageWithMarkup(chatID, replyText(links), markup)
}

// replyText words the reply for the two outcomes. The fallback message
// must convey that the link is not known to be reachable.
func replyText(links link.Links) string {
	if links.RemoteSucceeded {
		return fmt.Sprintf("✅ Image uploaded to host successfully!\n\n🔗 Link: %s\n\n", links.ShareLink)
	}

	errText := ""
	if links.Err != "" {
		errText = fmt.Sprintf("\n(Upload to host failed: %s)", links.Err)
	}

	return fmt.Sprintf(
		"⚠️ Remote upload failed. A local link was created (may not be accessible publicly).\n\n"+
			"Local Link: %s\nDirect (assumed) URL: %s%s\n\n",
		links.ShareLink, links.DirectLink, errText,
	)
}
