package relay

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/edgard/relaybot/internal/database"
)

var (
	aliasPattern    = regexp.MustCompile(`^[A-Za-z0-9_.#-]{1,32}$`)
	reservedPattern = regexp.MustCompile(`^User#[0-9]+$`)
)

// Identities maps chat ids to users and their aliases.
type Identities struct {
	store   database.Store
	timeout time.Duration
}

// NewIdentities returns a registry backed by store. Each store call is bounded by timeout.
func NewIdentities(store database.Store, timeout time.Duration) *Identities {
	return &Identities{store: store, timeout: timeout}
}

// ResolveOrCreate returns the user for chatID, creating it on first contact.
// Known users are served by a plain read without opening a write transaction.
func (i *Identities) ResolveOrCreate(ctx context.Context, chatID int64) (*database.User, error) {
	ctx, cancel := bounded(ctx, i.timeout)
	defer cancel()

	user, err := i.store.GetUserByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat %d: %w", chatID, err)
	}
	if user != nil {
		return user, nil
	}
	return i.store.GetOrCreateUser(ctx, chatID)
}

// LookupByAlias returns the user holding alias, or nil, nil when none does.
func (i *Identities) LookupByAlias(ctx context.Context, alias string) (*database.User, error) {
	ctx, cancel := bounded(ctx, i.timeout)
	defer cancel()
	return i.store.GetUserByAlias(ctx, alias)
}

// MarkStarted clears the first-contact flag for chatID.
func (i *Identities) MarkStarted(ctx context.Context, chatID int64) error {
	ctx, cancel := bounded(ctx, i.timeout)
	defer cancel()
	return i.store.MarkUserStarted(ctx, chatID)
}

// Rename moves the user holding alias to newAlias.
func (i *Identities) Rename(ctx context.Context, alias, newAlias string) (*database.User, error) {
	user, err := i.LookupByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if newAlias == user.Alias.String {
		return user, nil
	}
	if err := ValidateAlias(newAlias, user.ID); err != nil {
		return nil, err
	}

	ctx, cancel := bounded(ctx, i.timeout)
	defer cancel()
	if err := i.store.SetUserAlias(ctx, user.ID, newAlias); err != nil {
		if errors.Is(err, database.ErrAliasTaken) {
			return nil, ErrAliasTaken
		}
		return nil, err
	}
	user.Alias = database.NullString(newAlias)
	return user, nil
}

// ValidateAlias checks alias syntax. The User#<n> form is reserved for
// automatic assignment; a user may only take back its own.
func ValidateAlias(alias string, userID int64) error {
	if !aliasPattern.MatchString(alias) {
		return fmt.Errorf("%w: %q", ErrInvalidAlias, alias)
	}
	if reservedPattern.MatchString(alias) && alias != database.DefaultAlias(userID) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidAlias, alias)
	}
	return nil
}
