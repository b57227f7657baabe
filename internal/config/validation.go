package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct constraints and normalizes the document extension
// allow-list to lower case.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	for i, ext := range c.Relay.AllowedDocumentExtensions {
		c.Relay.AllowedDocumentExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}

	if c.Relay.InboxTextLimit >= c.Relay.InboxChunkSize {
		return fmt.Errorf("relay.inbox_text_limit (%d) must be smaller than relay.inbox_chunk_size (%d)",
			c.Relay.InboxTextLimit, c.Relay.InboxChunkSize)
	}

	return nil
}

// IsAdmin reports whether the given Telegram user id is the configured administrator.
func (c *Config) IsAdmin(userID int64) bool {
	return userID != 0 && userID == c.Telegram.AdminID
}
