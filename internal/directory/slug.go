package directory

import (
	"regexp"
	"strings"
)

// spaceClass is whitespace as browsers see it: RE2's \s is ASCII only, so vertical tab, the Unicode
// space separators, the line/paragraph separators and the BOM are listed explicitly.
const spaceClass = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	slugStrip    = regexp.MustCompile(`[^\w` + spaceClass + `-]`)
	slugCollapse = regexp.MustCompile(`[` + spaceClass + `_-]+`)
)

// GenerateSlug derives a URL-safe identifier from a display name: lowercase, drop anything that is not a
// word character, whitespace or hyphen, collapse whitespace/underscore/hyphen runs into one hyphen, and
// trim hyphens from both ends. GenerateSlug(GenerateSlug(x)) == GenerateSlug(x).
func GenerateSlug(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
