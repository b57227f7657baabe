package relay

import (
	"fmt"
	"iter"
	"strings"

	"github.com/edgard/relaybot/internal/database"
)

const inboxTimeLayout = "2006-01-02 15:04:05"

const inboxSeparator = "----\n"

// FormatInboxEntry renders one inbox line: a header with id, alias,
// direction and UTC timestamp, then the text (cut to textLimit runes) or the
// attachment kind and filename, then a separator.
func FormatInboxEntry(e database.InboxEntry, textLimit int) string {
	alias := e.Alias.String
	if !e.Alias.Valid || alias == "" {
		alias = "<without alias>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %s %s\n", e.ID, alias, e.Direction, e.Timestamp.UTC().Format(inboxTimeLayout))
	switch {
	case e.Text.Valid && e.Text.String != "":
		b.WriteString(truncateRunes(e.Text.String, textLimit))
		b.WriteByte('\n')
	case e.Kind.Valid && e.Kind.String != "":
		fmt.Fprintf(&b, "<%s> %s\n", e.Kind.String, e.Filename.String)
	}
	b.WriteString(inboxSeparator)
	return b.String()
}

// InboxLines lazily formats entries in the order given.
func InboxLines(entries []database.InboxEntry, textLimit int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, e := range entries {
			if !yield(FormatInboxEntry(e, textLimit)) {
				return
			}
		}
	}
}
