// Package slugger derives URL-safe unique identifiers from human titles.
package slugger

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackPrefix is used when a title normalizes to nothing slug-worthy.
const fallbackPrefix = "upload"

// foldTransformer strips combining marks after NFD decomposition, so that
// accented characters fold to their ASCII base (é -> e, ç -> c).
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Slugify normalizes a title to a lowercase ASCII-hyphenated slug containing
// only [a-z0-9-]. Diacritics are folded, everything else becomes a hyphen and
// runs of hyphens collapse.
func Slugify(title string) string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		// Transformation failures fall back to the raw title; non-ASCII runes
		// are dropped below anyway.
		folded = title
	}

	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

// Allocate returns a unique slug for the given title. A collision reported by
// exists is resolved by appending the current epoch milliseconds; this is a
// best-effort fallback, a residual race surfaces later as a uniqueness
// constraint violation on insert.
func Allocate(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return fmt.Sprintf("%s-%d", fallbackPrefix, time.Now().UnixMilli()), nil
	}

	taken, err := exists(ctx, slug)
	if err != nil {
		return "", fmt.Errorf("failed to check slug existence: %w", err)
	}
	if taken {
		slug = fmt.Sprintf("%s-%d", slug, time.Now().UnixMilli())
	}

	return slug, nil
}
