package relay

import (
	"context"
	"fmt"
	"iter"

	"github.com/edgard/relaybot/internal/database"
)

// Inbox returns the most recent messages across all users, newest first,
// packed into chunks that fit a single Telegram message.
func (r *Router) Inbox(ctx context.Context) (iter.Seq[string], error) {
	ctx, cancel := bounded(ctx, r.relayCfg.StoreTimeout)
	defer cancel()

	entries, err := r.store.GetRecentMessages(ctx, r.relayCfg.InboxLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	if len(entries) == 0 {
		empty := r.msgs.NoMessages
		return func(yield func(string) bool) { yield(empty) }, nil
	}
	return Chunk(InboxLines(entries, r.relayCfg.InboxTextLimit), r.relayCfg.InboxChunkSize), nil
}

// Reply records text as an outgoing message to the user holding alias and delivers it.
func (r *Router) Reply(ctx context.Context, alias, text string) error {
	user, err := r.lookup(ctx, alias)
	if err != nil {
		return err
	}

	if err := r.save(ctx, &database.Message{
		UserID:    user.ID,
		Text:      database.NullString(text),
		Direction: database.DirectionOut,
	}); err != nil {
		return err
	}

	if err := r.send(ctx, user.ChatID, text); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

// SendFile re-sends the attachment of messageID to the user holding alias.
// The message must belong to that user.
func (r *Router) SendFile(ctx context.Context, alias string, messageID int64) error {
	user, err := r.lookup(ctx, alias)
	if err != nil {
		return err
	}

	msg, err := r.userMessage(ctx, user.ID, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	kind := msg.AttachmentKind()
	if !msg.HasAttachment() || !kind.Valid() {
		return ErrUnsupportedKind
	}

	att := Attachment{Kind: kind, FileID: msg.FileID.String, Filename: msg.Filename.String}
	var caption string
	if kind == database.KindPhoto {
		caption = r.msgs.OutgoingPhotoCaption
	}
	if err := r.sendAttachment(ctx, user.ChatID, att, caption); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	audit := &database.Message{
		UserID:    user.ID,
		Text:      database.NullString(fmt.Sprintf(r.msgs.FileSentAuditFmt, messageID)),
		FileID:    msg.FileID,
		Kind:      msg.Kind,
		Filename:  msg.Filename,
		Direction: database.DirectionOut,
	}
	if err := r.save(ctx, audit); err != nil {
		// The file already reached the user; only the audit trail is missing.
		r.logger.ErrorContext(ctx, "Failed to record sent file", "user_id", user.ID, "message_id", messageID, "error", err)
	}
	return nil
}

func (r *Router) userMessage(ctx context.Context, userID, messageID int64) (*database.Message, error) {
	ctx, cancel := bounded(ctx, r.relayCfg.StoreTimeout)
	defer cancel()
	msg, err := r.store.GetUserMessage(ctx, userID, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message %d: %w", messageID, err)
	}
	return msg, nil
}

// Block bars the user holding alias, replacing any earlier reason.
func (r *Router) Block(ctx context.Context, alias, reason string) (*database.User, error) {
	user, err := r.lookup(ctx, alias)
	if err != nil {
		return nil, err
	}
	if err := r.blocks.Block(ctx, user.ID, reason); err != nil {
		return nil, fmt.Errorf("failed to block %s: %w", alias, err)
	}
	r.logger.InfoContext(ctx, "User blocked", "user_id", user.ID, "alias", alias, "reason", reason)
	return user, nil
}

// Unblock lifts the block on the user holding alias. Unblocking a user
// that is not blocked succeeds.
func (r *Router) Unblock(ctx context.Context, alias string) (*database.User, error) {
	user, err := r.lookup(ctx, alias)
	if err != nil {
		return nil, err
	}
	if err := r.blocks.Unblock(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to unblock %s: %w", alias, err)
	}
	r.logger.InfoContext(ctx, "User unblocked", "user_id", user.ID, "alias", alias)
	return user, nil
}

// Blocked lists active blocks, oldest first.
func (r *Router) Blocked(ctx context.Context) ([]database.Block, error) {
	blocks, err := r.blocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}

// Rename gives the user holding alias a new alias.
func (r *Router) Rename(ctx context.Context, alias, newAlias string) (*database.User, error) {
	user, err := r.identities.Rename(ctx, alias, newAlias)
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "User renamed", "user_id", user.ID, "from", alias, "to", newAlias)
	return user, nil
}
