package database

import (
	"database/sql"
	"time"
)

// Direction tags a persisted message with the side that originated it.
type Direction string

const (
	// DirectionIn marks a message sent by an end user to the administrator.
	DirectionIn Direction = "in"
	// DirectionOut marks a message sent by the administrator to an end user.
	DirectionOut Direction = "out"
)

// AttachmentKind is the media type of a relayed attachment.
type AttachmentKind string

// Kinds the relay accepts. Anything else reported by the platform is rejected
// before it reaches the store.
const (
	KindPhoto    AttachmentKind = "photo"
	KindDocument AttachmentKind = "document"
	KindAudio    AttachmentKind = "audio"
	KindVoice    AttachmentKind = "voice"
	KindVideo    AttachmentKind = "video"
	KindSticker  AttachmentKind = "sticker"
)

// AllowedKinds lists every attachment kind that may be persisted.
var AllowedKinds = []AttachmentKind{KindPhoto, KindDocument, KindAudio, KindVoice, KindVideo, KindSticker}

// Valid reports whether k belongs to the allowed enumeration.
func (k AttachmentKind) Valid() bool {
	for _, allowed := range AllowedKinds {
		if k == allowed {
			return true
		}
	}
	return false
}

// User is one relay participant, keyed by the Telegram chat id it writes from.
// Alias is the handle shown to the administrator instead of the chat id.
type User struct {
	ID           int64          `db:"id"`
	ChatID       int64          `db:"chat_id"`
	Alias        sql.NullString `db:"alias"`
	FirstContact bool           `db:"first_contact"`
	CreatedAt    time.Time      `db:"created_at"`
}

// DisplayAlias returns the alias or a placeholder when none is set.
func (u *User) DisplayAlias() string {
	if u == nil || !u.Alias.Valid || u.Alias.String == "" {
		return "<without alias>"
	}
	return u.Alias.String
}

// Message is one relayed unit: text, an attachment reference, or both.
// Rows are immutable once written.
type Message struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Text      sql.NullString `db:"text"`
	FileID    sql.NullString `db:"file_id"`
	Kind      sql.NullString `db:"kind"`
	Filename  sql.NullString `db:"filename"`
	Timestamp time.Time      `db:"ts"`
	Direction Direction      `db:"direction"`
}

// HasAttachment reports whether the message carries an attachment reference.
func (m *Message) HasAttachment() bool {
	return m != nil && m.FileID.Valid && m.FileID.String != ""
}

// AttachmentKind returns the stored kind, or "" when absent.
func (m *Message) AttachmentKind() AttachmentKind {
	if m == nil || !m.Kind.Valid {
		return ""
	}
	return AttachmentKind(m.Kind.String)
}

// InboxEntry is a message joined with its owner's alias, as listed by the inbox command.
type InboxEntry struct {
	Message
	Alias sql.NullString `db:"alias"`
}

// Block is an active moderation decision for one user.
type Block struct {
	UserID    int64          `db:"user_id"`
	Reason    sql.NullString `db:"reason"`
	Timestamp time.Time      `db:"ts"`
	Alias     sql.NullString `db:"alias"`
}

// NullString converts s into a sql.NullString that is NULL when s is empty.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
