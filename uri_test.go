package bucketkit

import (
	"testing"
)

func TestParseFileURI(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  URIParts
		isURI bool
	}{
		{
			name:  "full uri",
			raw:   "s3main://assets/img/logo.png",
			want:  URIParts{Provider: "s3main", Bucket: "assets", Path: "img/logo.png"},
			isURI: true,
		},
		{
			name:  "bucket root",
			raw:   "mem://cache/",
			want:  URIParts{Provider: "mem", Bucket: "cache", Path: ""},
			isURI: true,
		},
		{
			name:  "no trailing slash",
			raw:   "mem://cache",
			want:  URIParts{Provider: "mem", Bucket: "cache", Path: ""},
			isURI: true,
		},
		{
			name:  "with query",
			raw:   "mem://cache/a.txt?version=2&raw=true",
			want:  URIParts{Provider: "mem", Bucket: "cache", Path: "a.txt", RawQuery: "version=2&raw=true"},
			isURI: true,
		},
		{name: "plain path", raw: "img/logo.png", isURI: false},
		{name: "empty", raw: "", isURI: false},
		{name: "digit scheme", raw: "9p://bucket/x", isURI: false},
		{name: "missing bucket", raw: "mem://", isURI: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFileURI(tt.raw)
			if ok != tt.isURI {
				t.Fatalf("ParseFileURI(%q) ok = %v, want %v", tt.raw, ok, tt.isURI)
			}
			if !ok {
				return
			}
			if *got != tt.want {
				t.Errorf("ParseFileURI(%q) = %+v, want %+v", tt.raw, *got, tt.want)
			}
		})
	}
}

func TestBuildFileURIRoundTrip(t *testing.T) {
	uri := BuildFileURI("mem", "cache", "img/logo.png")
	if uri != "mem://cache/img/logo.png" {
		t.Fatalf("BuildFileURI = %q", uri)
	}
	parts, ok := ParseFileURI(uri)
	if !ok {
		t.Fatalf("round-trip parse failed for %q", uri)
	}
	if parts.Provider != "mem" || parts.Bucket != "cache" || parts.Path != "img/logo.png" {
		t.Errorf("round-trip parts = %+v", *parts)
	}

	if got := BuildFileURI("mem", "cache", ""); got != "mem://cache/" {
		t.Errorf("root URI = %q, want mem://cache/", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already clean", in: "img/logo.png", want: "img/logo.png"},
		{name: "upper case", in: "IMG/Logo.PNG", want: "img/logo.png"},
		{name: "spaces slugged", in: "My Reports/Q1 Final.pdf", want: "my-reports/q1-final.pdf"},
		{name: "leading slash", in: "/img/logo.png", want: "img/logo.png"},
		{name: "repeated separators", in: "img//logo.png", want: "img/logo.png"},
		{name: "backslashes", in: `img\logo.png`, want: "img/logo.png"},
		{name: "url escaped", in: "img/my%20logo.png", want: "img/my-logo.png"},
		{name: "dot segments dropped", in: "a/./b/../c.txt", want: "a/b/c.txt"},
		{name: "dotfile kept", in: "conf/.env", want: "conf/.env"},
		{name: "root", in: "", want: ""},
		{name: "slash only", in: "/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.in, nil); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestURIPartsQuery(t *testing.T) {
	parts, ok := ParseFileURI("mem://cache/a?x=1&y=two")
	if !ok {
		t.Fatal("parse failed")
	}
	q := parts.Query()
	if q.Get("x") != "1" || q.Get("y") != "two" {
		t.Errorf("Query = %v", q)
	}
}

func TestProviderNamePattern(t *testing.T) {
	valid := []string{"s3", "memA", "Local9"}
	invalid := []string{"", "9s3", "my-provider", "a_b", "s3 main"}

	for _, name := range valid {
		if !providerNamePattern.MatchString(name) {
			t.Errorf("%q rejected, want accepted", name)
		}
	}
	for _, name := range invalid {
		if providerNamePattern.MatchString(name) {
			t.Errorf("%q accepted, want rejected", name)
		}
	}
}

func TestNormalizePathCustomSlug(t *testing.T) {
	upper := func(seg string) string { return seg }
	if got := NormalizePath("Keep Me.txt", upper); got != "keep me.txt" {
		t.Errorf("custom slug result = %q, want lower-cased passthrough", got)
	}
}
