package markdown

import (
	"strconv"
	"strings"
)

// Image is anything with a resolvable URI, such as an uploaded page image.
type Image interface {
	ImageURI() string
}

// ImageURI is a plain URI usable as an Image.
type ImageURI string

func (u ImageURI) ImageURI() string { return string(u) }

// placeholder kinds: markdown image targets and HTML src attributes.
var placeholders = []struct {
	prefix, suffix string
}{
	{"(", ")"},
	{`src="`, `"`},
}

// RenderImageURI replaces imgN placeholders with the URI of the Nth image.
// Images must be in upload order; placeholders match by position only.
func RenderImageURI(text string, images []Image) string {
	if text == "" || len(images) == 0 {
		return text
	}

	out := text
	for i, img := range images {
		key := "img" + strconv.Itoa(i+1)
		for _, p := range placeholders {
			tag := p.prefix + key + p.suffix
			if !strings.Contains(out, tag) {
				continue
			}
			out = strings.ReplaceAll(out, tag, p.prefix+img.ImageURI()+p.suffix)
		}
	}
	return out
}
