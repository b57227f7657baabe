package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/relaybot/internal/telegram"
)

// RegisteredHandler represents a command handler with its pattern and middleware.
type RegisteredHandler = telegram.Route

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Every command except /start is restricted to the administrator.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	adminMiddleware := []tgbot.Middleware{AdminOnly(deps)}
	admin := map[string]tgbot.HandlerFunc{
		"help":    NewHelpHandler(deps),
		"inbox":   NewInboxHandler(deps),
		"reply":   NewReplyHandler(deps),
		"send":    NewSendHandler(deps),
		"fetch":   NewFetchHandler(deps),
		"block":   NewBlockHandler(deps),
		"unblock": NewUnblockHandler(deps),
		"blocked": NewBlockedHandler(deps),
		"alias":   NewAliasHandler(deps),
	}
	for command, handler := range admin {
		handlers["/"+command] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     command,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  adminMiddleware,
		}
	}

	return handlers
}
