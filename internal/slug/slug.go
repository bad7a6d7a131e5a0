// Package slug turns free-text titles into URL-safe identifiers.
package slug

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Make lowercases s and joins its runs of letters and digits with single
// hyphens. Non-Latin letters are kept. An input with no letters or digits
// yields "".
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// MakeUnique appends a short random suffix to Make(s) so equal titles do not
// collide.
func MakeUnique(s string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	base := Make(s)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
