package relay

import (
	"context"
	"time"

	"github.com/edgard/relaybot/internal/database"
)

// Blocks records which users are barred from reaching the administrator.
type Blocks struct {
	store   database.Store
	timeout time.Duration
}

// NewBlocks returns a block registry backed by store.
func NewBlocks(store database.Store, timeout time.Duration) *Blocks {
	return &Blocks{store: store, timeout: timeout}
}

func (b *Blocks) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := bounded(ctx, b.timeout)
	defer cancel()
	return b.store.IsBlocked(ctx, userID)
}

// Block creates or replaces the user's block entry.
func (b *Blocks) Block(ctx context.Context, userID int64, reason string) error {
	ctx, cancel := bounded(ctx, b.timeout)
	defer cancel()
	return b.store.BlockUser(ctx, userID, reason)
}

// Unblock removes the user's block entry, if any.
func (b *Blocks) Unblock(ctx context.Context, userID int64) error {
	ctx, cancel := bounded(ctx, b.timeout)
	defer cancel()
	return b.store.UnblockUser(ctx, userID)
}

func (b *Blocks) List(ctx context.Context) ([]database.Block, error) {
	ctx, cancel := bounded(ctx, b.timeout)
	defer cancel()
	return b.store.ListBlocks(ctx)
}
