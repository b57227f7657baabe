package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/quarantine"
)

// NewFetchHandler returns a handler for the /fetch command.
func NewFetchHandler(deps HandlerDeps) bot.HandlerFunc {
	return fetchHandler{deps}.Handle
}

// fetchHandler downloads an attachment into quarantine and reports the scan: /fetch <message id>.
type fetchHandler struct {
	deps HandlerDeps
}

func (h fetchHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "fetch")
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text, 0)
	if len(args) != 1 {
		send(ctx, h.deps, log, chatID, msgs.UsageFetch)
		return
	}
	messageID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		send(ctx, h.deps, log, chatID, msgs.UsageFetch)
		return
	}

	out, err := h.deps.Quarantine.Fetch(ctx, messageID)
	if err != nil {
		log.ErrorContext(ctx, "Fetch failed", "error", err, "message_id", messageID)
		send(ctx, h.deps, log, chatID, msgs.GeneralError)
		return
	}
	log.InfoContext(ctx, "Fetch finished", "message_id", messageID, "state", out.State, "path", out.Path)

	for _, text := range fetchReplies(msgs, out) {
		send(ctx, h.deps, log, chatID, text)
	}
}

// fetchReplies renders a fetch outcome as administrator messages: the
// download result first, then the scan verdict.
func fetchReplies(msgs config.MessagesConfig, out quarantine.Outcome) []string {
	switch out.State {
	case quarantine.StateNotFound:
		return []string{msgs.FetchNotFound}
	case quarantine.StateNoAttachment:
		return []string{msgs.NoAttachment}
	case quarantine.StateDownloadDisabled:
		return []string{msgs.DownloadDisabled}
	case quarantine.StateDownloadFailed:
		return []string{msgs.DownloadError}
	}

	replies := []string{fmt.Sprintf(msgs.DownloadedFmt, out.Path, out.MIME)}
	switch out.State {
	case quarantine.StateClean:
		replies = append(replies, msgs.ScanClean)
	case quarantine.StateInfected:
		replies = append(replies, fmt.Sprintf(msgs.ScanInfectedFmt, out.Report))
	default:
		replies = append(replies, msgs.ScanUnavailable)
	}
	return replies
}
