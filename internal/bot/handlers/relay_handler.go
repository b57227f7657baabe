package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/telegram"
)

// NewRelayHandler returns the default handler, which relays every
// non-command message from end users to the administrator.
func NewRelayHandler(deps HandlerDeps) bot.HandlerFunc {
	return relayHandler{deps}.Handle
}

type relayHandler struct {
	deps HandlerDeps
}

func (h relayHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "relay")

	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	switch {
	case msg.Chat.Type != "" && msg.Chat.Type != "private":
		log.DebugContext(ctx, "Ignoring message outside a private chat", "chat_id", chatID, "chat_type", msg.Chat.Type)
		return
	case msg.From != nil && h.deps.Config.IsAdmin(msg.From.ID):
		log.DebugContext(ctx, "Ignoring non-command message from administrator", "chat_id", chatID)
		return
	case isCommand(msg):
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", chatID)
		return
	}

	if err := h.deps.Router.HandleInbound(ctx, telegram.EventFromMessage(msg)); err != nil {
		log.ErrorContext(ctx, "Failed to relay message", "error", err, "chat_id", chatID)
		send(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
	}
}

// isCommand reports whether msg opens with a bot command entity. Text that
// merely starts with a slash, such as a path, is not a command.
func isCommand(msg *models.Message) bool {
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}
