package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewInboxHandler returns a handler for the /inbox command.
func NewInboxHandler(deps HandlerDeps) bot.HandlerFunc {
	return inboxHandler{deps}.Handle
}

// inboxHandler lists recent messages, one Telegram message per chunk.
type inboxHandler struct {
	deps HandlerDeps
}

func (h inboxHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "inbox")
	chatID := update.Message.Chat.ID

	chunks, err := h.deps.Router.Inbox(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build inbox", "error", err)
		send(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sent := 0
	for chunk := range chunks {
		if err := h.deps.Transport.SendText(ctx, chatID, chunk); err != nil {
			log.ErrorContext(ctx, "Failed to send inbox chunk", "error", err, "chunk", sent)
			return
		}
		sent++
	}
	log.DebugContext(ctx, "Inbox sent", "chunks", sent)
}
