package relay

import (
	"context"

	"github.com/edgard/relaybot/internal/database"
)

// Attachment references a file already held by the messaging platform.
type Attachment struct {
	Kind     database.AttachmentKind
	FileID   string
	Filename string
}

// Transport delivers relay output to chats.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	// SendAttachment re-sends a stored file by reference. Stickers ignore caption.
	SendAttachment(ctx context.Context, chatID int64, att Attachment, caption string) error
}

// Event is one inbound message from an end user, already classified.
type Event struct {
	ChatID   int64
	Username string
	Text     string
	Caption  string

	// Attachment is nil for plain text. Its Kind may be outside database.AllowedKinds.
	Attachment *Attachment
}

// Body returns the text, falling back to the caption.
func (e Event) Body() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Caption
}
