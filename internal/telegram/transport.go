package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/relay"
)

// DefaultServerURL is the public Bot API endpoint.
const DefaultServerURL = "https://api.telegram.org"

// Transport sends relay output through a go-telegram/bot instance and
// downloads files from the Bot API file endpoint.
type Transport struct {
	b         *bot.Bot
	token     string
	serverURL string
	client    *http.Client
	logger    *slog.Logger
}

// TransportOption customizes a Transport.
type TransportOption func(*Transport)

// WithServerURL points file downloads at a different Bot API server.
func WithServerURL(url string) TransportOption {
	return func(t *Transport) { t.serverURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets the client used for file downloads.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) { t.client = c }
}

// NewTransport wraps b. token is needed to build file download URLs.
func NewTransport(b *bot.Bot, token string, logger *slog.Logger, opts ...TransportOption) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		b:         b,
		token:     token,
		serverURL: DefaultServerURL,
		client:    &http.Client{Timeout: 5 * time.Minute},
		logger:    logger.With("component", "transport"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ relay.Transport = (*Transport)(nil)

// SendText sends a plain text message.
func (t *Transport) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := t.b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// SendAttachment re-sends a stored file by its Telegram file id using the
// method matching its kind. A file id cannot carry a new file name, so a
// document without a caption is captioned with its original name.
func (t *Transport) SendAttachment(ctx context.Context, chatID int64, att relay.Attachment, caption string) error {
	file := &models.InputFileString{Data: att.FileID}

	var err error
	switch att.Kind {
	case database.KindPhoto:
		_, err = t.b.SendPhoto(ctx, &bot.SendPhotoParams{ChatID: chatID, Photo: file, Caption: caption})
	case database.KindDocument:
		if caption == "" {
			caption = att.Filename
		}
		_, err = t.b.SendDocument(ctx, &bot.SendDocumentParams{ChatID: chatID, Document: file, Caption: caption})
	case database.KindAudio:
		_, err = t.b.SendAudio(ctx, &bot.SendAudioParams{ChatID: chatID, Audio: file, Caption: caption})
	case database.KindVoice:
		_, err = t.b.SendVoice(ctx, &bot.SendVoiceParams{ChatID: chatID, Voice: file, Caption: caption})
	case database.KindVideo:
		_, err = t.b.SendVideo(ctx, &bot.SendVideoParams{ChatID: chatID, Video: file, Caption: caption})
	case database.KindSticker:
		_, err = t.b.SendSticker(ctx, &bot.SendStickerParams{ChatID: chatID, Sticker: file})
	default:
		return fmt.Errorf("%w: %q", relay.ErrUnsupportedKind, att.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to send %s to chat %d: %w", att.Kind, chatID, err)
	}
	return nil
}

// Download resolves fileID with getFile and streams the file into dest.
func (t *Transport) Download(ctx context.Context, fileID string, dest io.Writer) (int64, error) {
	if fileID == "" {
		return 0, fmt.Errorf("empty file id")
	}

	file, err := t.b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return 0, fmt.Errorf("failed to get file info from Telegram: %w", err)
	}
	if file.FilePath == "" {
		return 0, fmt.Errorf("empty file path returned from Telegram for file id %s", fileID)
	}

	return t.fetch(ctx, file.FilePath, dest)
}

// fetch downloads filePath from the file endpoint. The token is part of the
// URL, so errors name only the file path.
func (t *Transport) fetch(ctx context.Context, filePath string, dest io.Writer) (int64, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", t.serverURL, t.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create download request for %s: %w", filePath, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", filePath, redact(err, t.token))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.logger.WarnContext(ctx, "Failed to close download body", "file_path", filePath, "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("unexpected status code %d for %s: %s", resp.StatusCode, filePath, strings.TrimSpace(string(body)))
	}

	n, err := io.Copy(dest, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", filePath, redact(err, t.token))
	}
	return n, nil
}

// redactedError hides the bot token embedded in URL errors.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
