// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that passes only messages sent by the
// configured administrator. Anyone else gets no response at all.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			userID := update.Message.From.ID
			if !deps.Config.IsAdmin(userID) {
				deps.Logger.With("middleware", "AdminOnly").InfoContext(ctx, "Ignoring admin command from non-admin",
					"user_id", userID, "chat_id", update.Message.Chat.ID)
				return
			}

			next(ctx, bot, update)
		}
	}
}

// Serialized creates a middleware that runs handlers one at a time, so no
// two updates are ever processed concurrently.
func Serialized() tgbot.Middleware {
	var mu sync.Mutex
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			mu.Lock()
			defer mu.Unlock()
			next(ctx, bot, update)
		}
	}
}
