package telegram

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// MaxMediaSize caps downloads at the Bot API's own file limit
const MaxMediaSize = 20 * 1024 * 1024 // 20MB

// Media handles media downloads from Telegram
type Media struct {
	bot    *Bot
	logger zerolog.Logger
}

// MediaFile represents a downloaded media file
type MediaFile struct {
	FileID   string
	FilePath string
	FileSize int
}

// NewMedia creates a new media handler
func NewMedia(bot *Bot) *Media {
	return &Media{
		bot:    bot,
		logger: bot.logger.With().Str("module", "media").Logger(),
	}
}

// LargestPhoto returns the file id of the biggest photo size in a
// message, or "" if the message carries no photo
func LargestPhoto(msg *tgbotapi.Message) string {
	if msg == nil || len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}

// DownloadFile downloads a file from Telegram to destPath
func (m *Media) DownloadFile(fileID string, destPath string) (*MediaFile, error) {
	// Get file info
	file, err := m.bot.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	// Check file size
	if file.FileSize > MaxMediaSize {
		return nil, fmt.Errorf("file size %d exceeds maximum %d", file.FileSize, MaxMediaSize)
	}

	// Get download URL
	url := file.Link(m.bot.api.Token)

	// Download file
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	// Create destination directory
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Create destination file
	out, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	// Copy data
	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	m.logger.Info().
		Str("file_id", fileID).
		Str("path", destPath).
		Int64("size", written).
		Msg("File downloaded")

	return &MediaFile{
		FileID:   fileID,
		FilePath: destPath,
		FileSize: int(written),
	}, nil
}
