package ares

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinSearchLength is the shortest name FindByName accepts, in characters.
const MinSearchLength = 3

// ParseID coerces a company identifier to a positive integer. Surrounding and
// grouping spaces ("270 74 358") are tolerated; anything else that is not a
// decimal digit is rejected.
func ParseID(raw string) (int, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return 0, fmt.Errorf("company id must be provided")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("company id %q must be a number", raw)
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("company id %q: %w", raw, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("company id %q must be positive", raw)
	}
	return id, nil
}

func checkSearchName(name string) error {
	if utf8.RuneCountInString(name) < MinSearchLength {
		return fmt.Errorf("search term %q needs at least %d characters", name, MinSearchLength)
	}
	return nil
}

// StripDiacritics folds accented letters to their base form
// ("Společník" -> "Spolecnik"). The search endpoint only matches ASCII.
func StripDiacritics(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
