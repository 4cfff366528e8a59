package bucketkit

import (
	"strings"

	"github.com/gosimple/slug"
)

// SlugFunc converts one path segment into its stored form. A custom
// function can be injected per session via WithSlugFunc.
type SlugFunc func(segment string) string

// DefaultSlug slugifies a path segment while keeping its dotted structure
// intact: "My Report.PDF" becomes "my-report.pdf", "archive.tar.gz" stays
// "archive.tar.gz". A leading dot (dotfiles) is preserved.
func DefaultSlug(segment string) string {
	if segment == "" {
		return segment
	}
	if segment[0] == '.' {
		return "." + DefaultSlug(segment[1:])
	}

	parts := strings.Split(segment, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = slug.Make(p)
		}
	}
	return strings.Join(parts, ".")
}
