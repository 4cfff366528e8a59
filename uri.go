package bucketkit

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// File URIs take the form providerName://bucketAlias/path/to/entry?query.
// The scheme is the provider name, the host the bucket's global alias, and
// the path a bucket-relative entry path.
var fileURIPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)://([^/?#]+)(/[^?#]*)?(?:\?(.*))?$`)

// providerNamePattern validates provider names and provider-type names.
var providerNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// URIParts is the raw decomposition of a file URI, before any registry
// lookups or path normalization.
type URIParts struct {
	Provider string
	Bucket   string
	Path     string
	RawQuery string
}

// ParseFileURI splits a file URI into its parts. The second return is
// false when the string is not a URI at all; callers then treat it as a
// bucket-relative path.
func ParseFileURI(raw string) (*URIParts, bool) {
	m := fileURIPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return &URIParts{
		Provider: m[1],
		Bucket:   m[2],
		Path:     strings.TrimPrefix(m[3], "/"),
		RawQuery: m[4],
	}, true
}

// Query parses the raw query string, dropping malformed pairs.
func (u *URIParts) Query() url.Values {
	v, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return url.Values{}
	}
	return v
}

// BuildFileURI assembles the canonical URI for a provider name, bucket
// alias, and normalized path.
func BuildFileURI(provider, alias, path string) string {
	if path == "" {
		return fmt.Sprintf("%s://%s/", provider, alias)
	}
	return fmt.Sprintf("%s://%s/%s", provider, alias, path)
}

// NormalizePath canonicalizes a bucket-relative path: URL-decode,
// lower-case, collapse repeated separators, slug each segment, strip the
// leading separator. The empty result is the bucket root "".
func NormalizePath(p string, slugFn SlugFunc) string {
	if slugFn == nil {
		slugFn = DefaultSlug
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	p = strings.ToLower(p)
	p = strings.ReplaceAll(p, "\\", "/")

	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		if s := slugFn(seg); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// Location is the result of resolving a file URI against a session: the
// provider, the bucket, and the normalized bucket-relative path.
type Location struct {
	Provider *Provider
	Bucket   *Bucket
	Path     string
}

// Ref returns the location as a PathRef pinned to its bucket.
func (l *Location) Ref() PathRef {
	return &FileEntry{Path: l.Path, Name: entryName(l.Path), Bucket: l.Bucket}
}
