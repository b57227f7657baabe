package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrAliasTaken is returned when an alias is already assigned to another user.
var ErrAliasTaken = errors.New("alias already in use")

// DefaultAlias is the alias assigned to a user on first contact.
func DefaultAlias(userID int64) string {
	return fmt.Sprintf("User#%d", userID)
}

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// GetOrCreateUser returns the user for chatID, creating it (with first_contact set
	// and a default alias) when absent. Uniqueness is enforced by the users.chat_id constraint.
	GetOrCreateUser(ctx context.Context, chatID int64) (*User, error)

	// GetUserByChatID returns the user for chatID. Returns nil, nil if not found.
	GetUserByChatID(ctx context.Context, chatID int64) (*User, error)

	// GetUserByAlias returns the user holding alias. Returns nil, nil if not found.
	GetUserByAlias(ctx context.Context, alias string) (*User, error)

	// MarkUserStarted clears the first_contact flag. Calling it again is a no-op.
	MarkUserStarted(ctx context.Context, chatID int64) error

	// SetUserAlias assigns alias to the user. Returns ErrAliasTaken if another user holds it.
	SetUserAlias(ctx context.Context, userID int64, alias string) error

	// SaveMessage inserts a new message record and sets its ID.
	SaveMessage(ctx context.Context, message *Message) error

	// GetMessage returns a message by id regardless of owner. Returns nil, nil if not found.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// GetUserMessage returns message id only if it belongs to userID. Returns nil, nil otherwise.
	GetUserMessage(ctx context.Context, userID, id int64) (*Message, error)

	// GetRecentMessages returns the newest 'limit' messages across all users, newest first.
	GetRecentMessages(ctx context.Context, limit int) ([]InboxEntry, error)

	// IsBlocked reports whether a block entry exists for userID.
	IsBlocked(ctx context.Context, userID int64) (bool, error)

	// BlockUser creates or replaces the block entry for userID.
	BlockUser(ctx context.Context, userID int64, reason string) error

	// UnblockUser removes the block entry for userID. Absent entries are not an error.
	UnblockUser(ctx context.Context, userID int64) error

	// ListBlocks returns every active block, oldest first.
	ListBlocks(ctx context.Context) ([]Block, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

const userColumns = `id, chat_id, alias, first_contact, created_at`

const messageColumns = `id, user_id, text, file_id, kind, filename, ts, direction`

func (s *sqlxStore) rollback(ctx context.Context, tx *sqlx.Tx) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.WarnContext(ctx, "Error rolling back transaction", "error", err)
	}
}

// GetOrCreateUser inserts the user if absent and reads it back within one transaction.
func (s *sqlxStore) GetOrCreateUser(ctx context.Context, chatID int64) (*User, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for user lookup", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (chat_id, first_contact, created_at) VALUES (?, 1, ?)
		 ON CONFLICT(chat_id) DO NOTHING`,
		chatID, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting user", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to insert user for chat %d: %w", chatID, err)
	}

	created := false
	if affected, err := result.RowsAffected(); err == nil && affected == 1 {
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read new user id for chat %d: %w", chatID, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET alias = ? WHERE id = ?`, DefaultAlias(id), id); err != nil {
			s.logger.ErrorContext(ctx, "Error assigning default alias", "user_id", id, "error", err)
			return nil, fmt.Errorf("failed to assign alias to user %d: %w", id, err)
		}
		created = true
	}

	var user User
	if err := tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE chat_id = ?`, chatID); err != nil {
		return nil, fmt.Errorf("failed to read user for chat %d: %w", chatID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	if created {
		s.logger.InfoContext(ctx, "Created user", "user_id", user.ID, "alias", user.Alias.String)
	}
	return &user, nil
}

func (s *sqlxStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, query, arg)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByChatID returns the user for chatID. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByChatID(ctx context.Context, chatID int64) (*User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE chat_id = ?`, chatID)
}

// GetUserByAlias returns the user holding alias. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByAlias(ctx context.Context, alias string) (*User, error) {
	if alias == "" {
		return nil, nil
	}
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE alias = ?`, alias)
}

// MarkUserStarted clears the first_contact flag for chatID.
func (s *sqlxStore) MarkUserStarted(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET first_contact = 0 WHERE chat_id = ?`, chatID); err != nil {
		s.logger.ErrorContext(ctx, "Error marking user started", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to mark chat %d started: %w", chatID, err)
	}
	return nil
}

// SetUserAlias assigns alias to userID, refusing aliases held by other users.
func (s *sqlxStore) SetUserAlias(ctx context.Context, userID int64, alias string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	var holder int64
	err = tx.GetContext(ctx, &holder, `SELECT id FROM users WHERE alias = ? AND id <> ?`, alias, userID)
	switch {
	case err == nil:
		return ErrAliasTaken
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check alias %q: %w", alias, err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET alias = ? WHERE id = ?`, alias, userID); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAliasTaken
		}
		s.logger.ErrorContext(ctx, "Error updating alias", "user_id", userID, "error", err)
		return fmt.Errorf("failed to set alias for user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Alias updated", "user_id", userID, "alias", alias)
	return nil
}

// SaveMessage inserts a new message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	if message.Direction != DirectionIn && message.Direction != DirectionOut {
		return fmt.Errorf("invalid message direction %q", message.Direction)
	}
	if message.Kind.Valid && !AttachmentKind(message.Kind.String).Valid() {
		return fmt.Errorf("invalid attachment kind %q", message.Kind.String)
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}

	query := `
        INSERT INTO messages (user_id, text, file_id, kind, filename, ts, direction)
        VALUES (:user_id, :text, :file_id, :kind, :filename, :ts, :direction);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to save message (user %d): %w", message.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"user_id", message.UserID, "error", err)
	} else {
		message.ID = id
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"user_id", message.UserID, "message_id", message.ID, "direction", message.Direction)
	return nil
}

func (s *sqlxStore) getMessage(ctx context.Context, query string, args ...any) (*Message, error) {
	var message Message
	err := s.db.GetContext(ctx, &message, query, args...)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching message", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting message", "error", err)
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

// GetMessage returns a message by id regardless of owner.
func (s *sqlxStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	return s.getMessage(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
}

// GetUserMessage returns a message by id scoped to its owner.
func (s *sqlxStore) GetUserMessage(ctx context.Context, userID, id int64) (*Message, error) {
	return s.getMessage(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ? AND user_id = ?`, id, userID)
}

// GetRecentMessages returns the newest messages joined with their owner's alias.
func (s *sqlxStore) GetRecentMessages(ctx context.Context, limit int) ([]InboxEntry, error) {
	if limit <= 0 {
		limit = 30
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := `
        SELECT m.id, m.user_id, m.text, m.file_id, m.kind, m.filename, m.ts, m.direction, u.alias
        FROM messages m JOIN users u ON m.user_id = u.id
        ORDER BY m.ts DESC, m.id DESC
        LIMIT ?;
    `

	var entries []InboxEntry
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages successfully", "count", len(entries))
	return entries, nil
}

// IsBlocked reports whether a block entry exists for userID.
func (s *sqlxStore) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	var exists int
	err := s.db.GetContext(ctx, &exists, `SELECT 1 FROM blocks WHERE user_id = ?`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking block", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check block for user %d: %w", userID, err)
	}
	return true, nil
}

// BlockUser creates or replaces the block entry for userID.
func (s *sqlxStore) BlockUser(ctx context.Context, userID int64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocks (user_id, reason, ts) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET reason = excluded.reason, ts = excluded.ts`,
		userID, NullString(reason), time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error blocking user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to block user %d: %w", userID, err)
	}
	s.logger.InfoContext(ctx, "User blocked", "user_id", userID)
	return nil
}

// UnblockUser removes the block entry for userID.
func (s *sqlxStore) UnblockUser(ctx context.Context, userID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM blocks WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error unblocking user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to unblock user %d: %w", userID, err)
	}
	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "User unblocked", "user_id", userID, "removed", count)
	return nil
}

// ListBlocks returns every active block with the blocked user's alias.
func (s *sqlxStore) ListBlocks(ctx context.Context) ([]Block, error) {
	var blocks []Block
	err := s.db.SelectContext(ctx, &blocks,
		`SELECT b.user_id, b.reason, b.ts, u.alias
		 FROM blocks b JOIN users u ON b.user_id = u.id
		 ORDER BY b.ts ASC, b.user_id ASC`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing blocks", "error", err)
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
