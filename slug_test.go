package bucketkit

import "testing"

func TestDefaultSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "logo.png", want: "logo.png"},
		{in: "My Report.PDF", want: "my-report.pdf"},
		{in: "Q1 Final (v2).xlsx", want: "q1-final-v2.xlsx"},
		{in: "no-extension", want: "no-extension"},
		{in: ".env", want: ".env"},
		{in: ".Config File", want: ".config-file"},
		{in: "archive.tar.gz", want: "archive.tar.gz"},
		{in: "Notes v2.Final.MD", want: "notes-v2.final.md"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := DefaultSlug(tt.in); got != tt.want {
				t.Errorf("DefaultSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
