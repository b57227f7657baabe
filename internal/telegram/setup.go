// Package telegram adapts go-telegram/bot to the relay: bot construction,
// handler registration, update classification and the Transport implementation.
package telegram

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Route binds a handler and its middleware to an update pattern.
type Route struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
}

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// ApplyMiddleware wraps a handler function with a slice of middleware.
// The first middleware in the slice is the outermost.
func ApplyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers the given routes with the bot, applying each
// route's middleware.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, routes map[string]Route) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(routes) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	log.Info("Registering Telegram handlers...", "count", len(routes))

	for name, route := range routes {
		if route.Handler == nil {
			log.Warn("Skipping registration for nil handler", "command", name)
			continue
		}
		b.RegisterHandler(route.HandlerType, route.Pattern, route.MatchType, ApplyMiddleware(route.Handler, route.Middleware))
		log.Debug("Registered handler", "command", name, "match_type", route.MatchType, "middleware_count", len(route.Middleware))
	}

	log.Info("Registered Telegram handlers successfully", "count", len(routes))
	return nil
}
