package quarantine

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNameBytes leaves room for the "<id>_" prefix and ".part" suffix within
// the usual 255-byte file name limit.
const maxNameBytes = 200

// maxExtBytes bounds the extension kept when a name is shortened.
const maxExtBytes = 16

// FileName returns the quarantine file name for a message attachment:
// "<messageID>_<filename>", or "<messageID>_<kind>_<messageID>" when the
// attachment has no usable name.
func FileName(messageID int64, kind, filename string) string {
	base := SanitizeName(filename)
	if base == "" {
		base = fmt.Sprintf("%s_%d", SanitizeName(kind), messageID)
	}
	return fmt.Sprintf("%d_%s", messageID, base)
}

// SanitizeName strips directories from name and replaces every rune outside
// letters, digits, '.', '_' and '-' with '_'. Leading dots are removed.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return shorten(strings.TrimLeft(b.String(), "."), maxNameBytes)
}

// shorten cuts name to at most limit bytes on a rune boundary, keeping a
// short extension intact.
func shorten(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > maxExtBytes || len(ext) == len(name) {
		ext = ""
	}
	stem := name[:len(name)-len(ext)]
	budget := limit - len(ext)

	cut := 0
	for i, r := range stem {
		end := i + utf8.RuneLen(r)
		if end > budget {
			break
		}
		cut = end
	}
	return stem[:cut] + ext
}
