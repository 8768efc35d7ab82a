package utils

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
)

var (
	// Whitespace covers Unicode separators (NBSP, em space, BOM), not just ASCII \s.
	slugInvalid = regexp.MustCompile(`[^\w\s\v\pZ\x{FEFF}-]`)
	slugSpaces  = regexp.MustCompile(`[\s\v\pZ\x{FEFF}]+`)
	slugHyphens = regexp.MustCompile(`-+`)
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SlugSuffixLen is the length of the random suffix appended on slug collisions.
const SlugSuffixLen = 5

// Slugify maps free text to a URL-safe identifier, e.g. "Hello, World!  Foo" -> "hello-world-foo".
// Only ASCII word characters survive, so a title without any yields "".
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.TrimFunc(s, isSlugTrim)
}

func isSlugTrim(r rune) bool {
	return r == '-' || unicode.IsSpace(r) || r == '\uFEFF'
}

// RandomSuffix returns SlugSuffixLen lowercase alphanumeric characters.
func RandomSuffix() string {
	b := make([]byte, SlugSuffixLen)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}
