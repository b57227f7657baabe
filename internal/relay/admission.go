package relay

import (
	"path/filepath"
	"strings"

	"github.com/edgard/relaybot/internal/database"
)

// Filter decides which attachments may be relayed.
type Filter struct {
	extensions map[string]struct{}
}

// NewFilter builds a filter admitting documents with the given extensions
// (leading dot, matched case-insensitively).
func NewFilter(extensions []string) *Filter {
	f := &Filter{extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		f.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return f
}

// Check returns ErrUnsupportedKind or ErrExtensionNotAllowed when the
// attachment must be rejected. Documents without a filename are admitted.
func (f *Filter) Check(kind database.AttachmentKind, filename string) error {
	if !kind.Valid() {
		return ErrUnsupportedKind
	}
	if kind != database.KindDocument || filename == "" {
		return nil
	}
	if _, ok := f.extensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		return ErrExtensionNotAllowed
	}
	return nil
}
