package catalog

import (
	"strings"
	"unicode"
)

// Slugify derives a URL slug from a name: lowercase, strip everything
// that is not a word character, space or hyphen, collapse runs of
// whitespace/underscore/hyphen into a single hyphen, trim hyphens.
// Idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-' || unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// NormalizeVersion prefixes a raw version with "v" when it begins with a
// digit. Applied on every read so the stored raw value is never
// double-prefixed.
func NormalizeVersion(version string) string {
	if version == "" {
		return ""
	}
	if version[0] >= '0' && version[0] <= '9' {
		return "v" + version
	}
	return version
}
