package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/relay"
)

// Attachment kinds that are recognized but never relayed.
const (
	KindAnimation database.AttachmentKind = "animation"
	KindVideoNote database.AttachmentKind = "video_note"
)

// EventFromMessage converts an inbound Telegram message into a relay event.
func EventFromMessage(msg *models.Message) relay.Event {
	ev := relay.Event{
		ChatID:     msg.Chat.ID,
		Text:       msg.Text,
		Caption:    msg.Caption,
		Attachment: Classify(msg),
	}
	if msg.From != nil {
		ev.Username = msg.From.Username
	}
	return ev
}

// Classify returns the attachment carried by msg, or nil for plain text.
// Animations are checked before documents because Telegram fills both
// fields for a GIF.
func Classify(msg *models.Message) *relay.Attachment {
	switch {
	case len(msg.Photo) > 0:
		return &relay.Attachment{Kind: database.KindPhoto, FileID: largestPhoto(msg.Photo).FileID}
	case msg.Animation != nil:
		return &relay.Attachment{Kind: KindAnimation, FileID: msg.Animation.FileID, Filename: msg.Animation.FileName}
	case msg.Document != nil:
		return &relay.Attachment{Kind: database.KindDocument, FileID: msg.Document.FileID, Filename: msg.Document.FileName}
	case msg.Audio != nil:
		return &relay.Attachment{Kind: database.KindAudio, FileID: msg.Audio.FileID}
	case msg.Voice != nil:
		return &relay.Attachment{Kind: database.KindVoice, FileID: msg.Voice.FileID}
	case msg.Video != nil:
		return &relay.Attachment{Kind: database.KindVideo, FileID: msg.Video.FileID}
	case msg.Sticker != nil:
		return &relay.Attachment{Kind: database.KindSticker, FileID: msg.Sticker.FileID}
	case msg.VideoNote != nil:
		return &relay.Attachment{Kind: KindVideoNote, FileID: msg.VideoNote.FileID}
	}
	return nil
}

// largestPhoto picks the size with the greatest pixel area; later sizes win ties.
func largestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height >= best.Width*best.Height {
			best = s
		}
	}
	return best
}
