package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrExhausted is returned when no free slug could be found within the retry
// budget. The unique index on the blogs table is the authoritative guard; this
// error means the scope is saturated around the requested title.
var ErrExhausted = errors.New("slug: candidate budget exhausted")

const (
	maxSlugLen  = 80
	maxAttempts = 20
	fallback    = "post"
)

// Index reports whether a slug is already taken within the uniqueness scope.
type Index interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Generator derives URL-safe identifiers from human titles.
type Generator struct {
	index Index
}

// NewGenerator returns a generator probing the provided index for collisions.
func NewGenerator(index Index) *Generator {
	return &Generator{index: index}
}

// Normalize reduces a title to its base slug token: diacritics stripped,
// lowercased, punctuation runs collapsed to single hyphens, bounded length.
func Normalize(title string) string {
	stripped, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), title)
	if err != nil {
		stripped = title
	}

	out := make([]rune, 0, len(stripped))
	lastHyphen := true
	for _, r := range strings.ToLower(stripped) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			out = append(out, '-')
			lastHyphen = true
		}
	}

	token := strings.Trim(string(out), "-")
	if len(token) > maxSlugLen {
		token = strings.TrimRight(token[:maxSlugLen], "-")
	}
	if token == "" {
		token = fallback
	}
	return token
}

// Candidate returns the nth slug candidate for a base token. The first
// attempt is the base itself, then base-2, base-3, and so on.
func Candidate(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt+1)
}

// Generate returns the first unused slug for the title. The existence probe
// is advisory only; callers inserting the result must still treat a unique
// constraint violation as a lost race and retry with NextAfter.
func (g *Generator) Generate(ctx context.Context, title string) (string, error) {
	base := Normalize(title)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := Candidate(base, attempt)
		taken, err := g.index.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", ErrExhausted
}

// NextAfter re-derives the candidate that follows a slug the caller failed to
// claim. It keeps the insert-retry loop bounded by the same budget as
// Generate.
func (g *Generator) NextAfter(ctx context.Context, title, lost string) (string, error) {
	base := Normalize(title)

	start := 0
	if lost != base {
		var n int
		if _, err := fmt.Sscanf(lost, base+"-%d", &n); err == nil && n > 1 {
			start = n - 1
		}
	}

	for attempt := start + 1; attempt < maxAttempts; attempt++ {
		candidate := Candidate(base, attempt)
		taken, err := g.index.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", ErrExhausted
}
