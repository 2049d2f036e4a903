package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// replacer transliterates accented Latin characters to ASCII so category
// names like "Música Clássica" produce clean slugs.
var replacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Música Clássica" → "musica-classica"
//   - "Hip Hop / Rap"   → "hip-hop-rap"
//   - "  Jazz  "        → "jazz"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = replacer.Replace(s)

	// Replace any remaining non-alphanumeric run with a single hyphen.
	s = slugRegexp.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
