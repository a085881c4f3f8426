package markdown

import (
	"testing"
)

func TestConvertImages(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		resourceURL string
		want        string
	}{
		{
			name:        "relative source resolved against resource host",
			body:        "![x](img.png)",
			resourceURL: "https://forge.example/org/repo/issues/1",
			want:        `<img src="https://forge.example/img.png"/>`,
		},
		{
			name:        "absolute source untouched",
			body:        "![logo](https://cdn.example/logo.png)",
			resourceURL: "https://forge.example/org/repo/issues/1",
			want:        `<img src="https://cdn.example/logo.png"/>`,
		},
		{
			name:        "rooted relative source",
			body:        "![x](/attachments/a.png)",
			resourceURL: "https://forge.example/org/repo/issues/1",
			want:        `<img src="https://forge.example/attachments/a.png"/>`,
		},
		{
			name:        "surrounding text preserved",
			body:        "before ![a](pic.png) after",
			resourceURL: "https://forge.example/org/repo/releases/tag/v1",
			want:        `before <img src="https://forge.example/pic.png"/> after`,
		},
		{
			name:        "multiple images",
			body:        "![a](one.png) and ![b](https://cdn.example/two.png)",
			resourceURL: "https://forge.example/o/r/issues/2",
			want:        `<img src="https://forge.example/one.png"/> and <img src="https://cdn.example/two.png"/>`,
		},
		{
			name:        "no images",
			body:        "plain text with [a link](somewhere)",
			resourceURL: "https://forge.example/o/r/issues/2",
			want:        "plain text with [a link](somewhere)",
		},
		{
			name:        "empty body",
			body:        "",
			resourceURL: "https://forge.example/o/r/issues/2",
			want:        "",
		},
		{
			name:        "relative source with unparseable resource URL left alone",
			body:        "![x](img.png)",
			resourceURL: "",
			want:        `<img src="img.png"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertImages(tt.body, tt.resourceURL)
			if got != tt.want {
				t.Errorf("ConvertImages() = %q, want %q", got, tt.want)
			}
		})
	}
}
