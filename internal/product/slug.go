package product

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugBase  = 48
	fallbackSlug = "produto"
)

// Slug builds a unique product slug: the accent-free lower-case name reduced
// to [a-z0-9-], then the creation time in unix milliseconds and the first six
// characters of the owner id.
func Slug(name, userID string, now time.Time) string {
	base := slugBase(name)
	if base == "" {
		base = fallbackSlug
	}
	owner := userID
	if len(owner) > 6 {
		owner = owner[:6]
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + owner
}

func slugBase(name string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripper, strings.ToLower(name))
	if err != nil {
		plain = strings.ToLower(name)
	}

	var b strings.Builder
	dash := false
	for _, r := range plain {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxSlugBase {
		out = out[:maxSlugBase]
	}
	return out
}
