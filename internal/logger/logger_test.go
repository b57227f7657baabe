package logger

import (
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly10!", max: 10, want: "exactly10!"},
		{in: "this is too long", max: 10, want: "this is..."},
		{in: "привет мир", max: 8, want: "приве..."},
		{in: "abc", max: 2, want: "..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPayloadKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *models.Message
		want string
	}{
		{name: "text", msg: &models.Message{Text: "hi"}, want: "text"},
		{name: "photo", msg: &models.Message{Photo: []models.PhotoSize{{FileID: "p"}}}, want: "photo"},
		{name: "document", msg: &models.Message{Document: &models.Document{FileID: "d"}}, want: "document"},
		{name: "sticker", msg: &models.Message{Sticker: &models.Sticker{FileID: "s"}}, want: "sticker"},
		{name: "video note", msg: &models.Message{VideoNote: &models.VideoNote{FileID: "v"}}, want: "video_note"},
	}
	for _, tt := range tests {
		if got := PayloadKind(tt.msg); got != tt.want {
			t.Errorf("%s: PayloadKind() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
