package handlers

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// send delivers text to chatID and logs failures; handlers never retry.
func send(ctx context.Context, deps HandlerDeps, log *slog.Logger, chatID int64, text string) {
	if err := deps.Transport.SendText(ctx, chatID, text); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// commandArgs returns the arguments following the command in text. When
// n > 0 at most n arguments are returned and the last one holds the rest of
// the text verbatim.
func commandArgs(text string, n int) []string {
	_, rest := nextField(strings.TrimSpace(text))

	var args []string
	for rest != "" {
		if n > 0 && len(args) == n-1 {
			return append(args, rest)
		}
		var field string
		field, rest = nextField(rest)
		args = append(args, field)
	}
	return args
}

func nextField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
