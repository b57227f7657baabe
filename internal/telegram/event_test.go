package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/database"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		msg      *models.Message
		wantKind database.AttachmentKind
		wantFile string
		wantName string
	}{
		{name: "text", msg: &models.Message{Text: "hi"}},
		{
			name: "largest photo",
			msg: &models.Message{Photo: []models.PhotoSize{
				{FileID: "small", Width: 90, Height: 90},
				{FileID: "large", Width: 1280, Height: 960},
				{FileID: "medium", Width: 320, Height: 240},
			}},
			wantKind: database.KindPhoto, wantFile: "large",
		},
		{
			name:     "document",
			msg:      &models.Message{Document: &models.Document{FileID: "doc", FileName: "a.PDF"}},
			wantKind: database.KindDocument, wantFile: "doc", wantName: "a.PDF",
		},
		{
			name: "animation wins over document",
			msg: &models.Message{
				Animation: &models.Animation{FileID: "gif", FileName: "cat.mp4"},
				Document:  &models.Document{FileID: "gif", FileName: "cat.mp4"},
			},
			wantKind: KindAnimation, wantFile: "gif", wantName: "cat.mp4",
		},
		{name: "audio", msg: &models.Message{Audio: &models.Audio{FileID: "aud"}}, wantKind: database.KindAudio, wantFile: "aud"},
		{name: "voice", msg: &models.Message{Voice: &models.Voice{FileID: "v"}}, wantKind: database.KindVoice, wantFile: "v"},
		{name: "video", msg: &models.Message{Video: &models.Video{FileID: "vid"}}, wantKind: database.KindVideo, wantFile: "vid"},
		{name: "sticker", msg: &models.Message{Sticker: &models.Sticker{FileID: "st"}}, wantKind: database.KindSticker, wantFile: "st"},
		{name: "video note", msg: &models.Message{VideoNote: &models.VideoNote{FileID: "vn"}}, wantKind: KindVideoNote, wantFile: "vn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			att := Classify(tt.msg)
			if tt.wantKind == "" {
				if att != nil {
					t.Errorf("Classify() = %+v, want nil", att)
				}
				return
			}
			if att == nil {
				t.Fatalf("Classify() = nil, want %s", tt.wantKind)
			}
			if att.Kind != tt.wantKind || att.FileID != tt.wantFile || att.Filename != tt.wantName {
				t.Errorf("Classify() = %+v, want kind %s file %s name %q", att, tt.wantKind, tt.wantFile, tt.wantName)
			}
		})
	}
}

func TestEventFromMessage(t *testing.T) {
	t.Parallel()

	msg := &models.Message{
		Chat:    models.Chat{ID: 321},
		From:    &models.User{ID: 321, Username: "kate"},
		Caption: "see attached",
		Voice:   &models.Voice{FileID: "v1"},
	}

	ev := EventFromMessage(msg)
	if ev.ChatID != 321 || ev.Username != "kate" || ev.Text != "" || ev.Caption != "see attached" {
		t.Errorf("EventFromMessage() = %+v", ev)
	}
	if ev.Body() != "see attached" {
		t.Errorf("Body() = %q, want caption", ev.Body())
	}
	if ev.Attachment == nil || ev.Attachment.Kind != database.KindVoice {
		t.Errorf("Attachment = %+v, want voice", ev.Attachment)
	}

	anon := EventFromMessage(&models.Message{Chat: models.Chat{ID: 5}, Text: "x"})
	if anon.Username != "" || anon.Attachment != nil {
		t.Errorf("EventFromMessage() without sender = %+v", anon)
	}
}
