package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/quarantine"
	"github.com/edgard/relaybot/internal/relay"
)

// Fetcher runs the quarantine workflow for a stored message.
type Fetcher interface {
	Fetch(ctx context.Context, messageID int64) (quarantine.Outcome, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Router     *relay.Router
	Quarantine Fetcher
	Transport  relay.Transport
}
