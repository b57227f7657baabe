package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewBlockHandler returns a handler for the /block command.
func NewBlockHandler(deps HandlerDeps) bot.HandlerFunc {
	return blockHandler{deps}.Handle
}

// blockHandler bars a user: /block <alias> [reason].
type blockHandler struct {
	deps HandlerDeps
}

func (h blockHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "block")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text, 2)
	if len(args) < 1 {
		send(ctx, h.deps, log, chatID, msgs.UsageBlock)
		return
	}
	alias := args[0]
	var reason string
	if len(args) > 1 {
		reason = args[1]
	}

	_, err := h.deps.Router.Block(ctx, alias, reason)
	switch {
	case err == nil:
		send(ctx, h.deps, log, chatID, fmt.Sprintf(msgs.BlockedFmt, alias, reason))
	case errors.Is(err, relay.ErrUserNotFound):
		send(ctx, h.deps, log, chatID, msgs.UserNotFound)
	default:
		log.ErrorContext(ctx, "Failed to block user", "error", err, "alias", alias)
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
	}
}

// NewUnblockHandler returns a handler for the /unblock command.
func NewUnblockHandler(deps HandlerDeps) bot.HandlerFunc {
	return unblockHandler{deps}.Handle
}

type unblockHandler struct {
	deps HandlerDeps
}

func (h unblockHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unblock")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text, 0)
	if len(args) != 1 {
		send(ctx, h.deps, log, chatID, msgs.UsageUnblock)
		return
	}

	_, err := h.deps.Router.Unblock(ctx, args[0])
	switch {
	case err == nil:
		send(ctx, h.deps, log, chatID, fmt.Sprintf(msgs.UnblockedFmt, args[0]))
	case errors.Is(err, relay.ErrUserNotFound):
		send(ctx, h.deps, log, chatID, msgs.UserNotFound)
	default:
		log.ErrorContext(ctx, "Failed to unblock user", "error", err, "alias", args[0])
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
	}
}

// NewBlockedHandler returns a handler for the /blocked command.
func NewBlockedHandler(deps HandlerDeps) bot.HandlerFunc {
	return blockedHandler{deps}.Handle
}

// blockedHandler lists active blocks.
type blockedHandler struct {
	deps HandlerDeps
}

func (h blockedHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "blocked")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	blocks, err := h.deps.Router.Blocked(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list blocks", "error", err)
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
		return
	}
	if len(blocks) == 0 {
		send(ctx, h.deps, log, chatID, msgs.NoBlocks)
		return
	}

	lines := func(yield func(string) bool) {
		for _, blk := range blocks {
			line := fmt.Sprintf("%s %s %s", blk.Alias.String, blk.Timestamp.UTC().Format("2006-01-02 15:04:05"), blk.Reason.String)
			if !yield(strings.TrimSpace(line) + "\n") {
				return
			}
		}
	}
	for chunk := range relay.Chunk(lines, h.deps.Config.Relay.InboxChunkSize) {
		send(ctx, h.deps, log, chatID, chunk)
	}
}
