package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewAliasHandler returns a handler for the /alias command.
func NewAliasHandler(deps HandlerDeps) bot.HandlerFunc {
	return aliasHandler{deps}.Handle
}

// aliasHandler renames a user: /alias <alias> <new alias>.
type aliasHandler struct {
	deps HandlerDeps
}

func (h aliasHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "alias")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text, 0)
	if len(args) != 2 {
		send(ctx, h.deps, log, chatID, msgs.UsageAlias)
		return
	}

	_, err := h.deps.Router.Rename(ctx, args[0], args[1])
	switch {
	case err == nil:
		send(ctx, h.deps, log, chatID, fmt.Sprintf(msgs.AliasUpdatedFmt, args[0], args[1]))
	case errors.Is(err, relay.ErrUserNotFound):
		send(ctx, h.deps, log, chatID, msgs.UserNotFound)
	case errors.Is(err, relay.ErrAliasTaken):
		send(ctx, h.deps, log, chatID, msgs.AliasTaken)
	case errors.Is(err, relay.ErrInvalidAlias):
		send(ctx, h.deps, log, chatID, msgs.AliasInvalid)
	default:
		log.ErrorContext(ctx, "Failed to rename user", "error", err, "alias", args[0])
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
	}
}
