package sync

import (
	"path/filepath"
	"regexp"
	"strings"
)

// cameraPrefix matches a leading camera-generated prefix followed by a
// separator. Longer prefixes are listed first so DSCN is not shadowed by
// DSC, and PHOTO/IMAGE are not shadowed by P.
var cameraPrefix = regexp.MustCompile(`^(DSCN|PHOTO|IMAGE|IMG|DSC|PIC|P)[-_]`)

// dateToken matches 20YYMMDD (optionally separated) or YYYY-MM-DD /
// YYYY_MM_DD, validating month 01-12 and day 01-31.
var dateToken = regexp.MustCompile(`20\d{2}[-_]?(0[1-9]|1[0-2])[-_]?(0[1-9]|[12]\d|3[01])` +
	`|\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])|\d{4}_(0[1-9]|1[0-2])_(0[1-9]|[12]\d|3[01])`)

// timeToken matches HHMMSS (optionally separated), validating hour 00-23,
// minute 00-59, second 00-59.
var timeToken = regexp.MustCompile(`([01]\d|2[0-3])[-_:]?([0-5]\d)[-_:]?([0-5]\d)`)

var (
	leadingDigits  = regexp.MustCompile(`^[-_]?\d{1,4}[-_]`)
	trailingDigits = regexp.MustCompile(`[-_]\d{1,4}[-_]?$`)
	separatorRun   = regexp.MustCompile(`[-_]+`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// TitleFromFilename deterministically derives a display title from a
// filename: strip a camera-generated prefix, strip embedded date/time
// tokens, strip leftover digit runs, collapse separators, title-case the
// remainder. This is the single definition of "auto-generated title" —
// the engine compares a stored title against this function's output to
// decide whether it is safe to regenerate on modification.
func TitleFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	s := cameraPrefix.ReplaceAllString(stem, "")
	s = dateToken.ReplaceAllString(s, "")
	s = timeToken.ReplaceAllString(s, "")
	s = leadingDigits.ReplaceAllString(s, "")
	s = trailingDigits.ReplaceAllString(s, "")
	s = separatorRun.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if s == "" {
		fallback := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
		return titleCase(fallback)
	}

	return titleCase(s)
}

// titleCase upper-cases the first rune of each whitespace-separated word
// and lower-cases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}

	return strings.Join(words, " ")
}
