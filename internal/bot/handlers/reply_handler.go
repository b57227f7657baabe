package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewReplyHandler returns a handler for the /reply command.
func NewReplyHandler(deps HandlerDeps) bot.HandlerFunc {
	return replyHandler{deps}.Handle
}

// replyHandler answers a user by alias: /reply <alias> <text>.
type replyHandler struct {
	deps HandlerDeps
}

func (h replyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reply")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text, 2)
	if len(args) < 2 {
		send(ctx, h.deps, log, chatID, msgs.UsageReply)
		return
	}

	err := h.deps.Router.Reply(ctx, args[0], args[1])
	switch {
	case err == nil:
		send(ctx, h.deps, log, chatID, msgs.Sent)
	case errors.Is(err, relay.ErrUserNotFound):
		send(ctx, h.deps, log, chatID, msgs.UserNotFound)
	case errors.Is(err, relay.ErrDeliveryFailed):
		log.ErrorContext(ctx, "Failed to deliver reply", "error", err, "alias", args[0])
		send(ctx, h.deps, log, chatID, msgs.SendError)
	default:
		log.ErrorContext(ctx, "Failed to reply", "error", err, "alias", args[0])
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
	}
}
