package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewSendHandler returns a handler for the /send command.
func NewSendHandler(deps HandlerDeps) bot.HandlerFunc {
	return sendHandler{deps}.Handle
}

// sendHandler re-sends a stored file to its owner: /send <alias> <message id>.
type sendHandler struct {
	deps HandlerDeps
}

func (h sendHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "send")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text, 0)
	if len(args) < 2 {
		send(ctx, h.deps, log, chatID, msgs.UsageSend)
		return
	}
	messageID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		send(ctx, h.deps, log, chatID, msgs.UsageSend)
		return
	}

	err = h.deps.Router.SendFile(ctx, args[0], messageID)
	switch {
	case err == nil:
		send(ctx, h.deps, log, chatID, msgs.FileSent)
	case errors.Is(err, relay.ErrUserNotFound):
		send(ctx, h.deps, log, chatID, msgs.UserNotFound)
	case errors.Is(err, relay.ErrMessageNotFound):
		send(ctx, h.deps, log, chatID, msgs.MessageNotFound)
	case errors.Is(err, relay.ErrUnsupportedKind):
		send(ctx, h.deps, log, chatID, msgs.FileTypeNotSupported)
	case errors.Is(err, relay.ErrDeliveryFailed):
		log.ErrorContext(ctx, "Failed to deliver file", "error", err, "message_id", messageID)
		send(ctx, h.deps, log, chatID, msgs.FileSendError)
	default:
		log.ErrorContext(ctx, "Failed to send file", "error", err, "message_id", messageID)
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
	}
}
