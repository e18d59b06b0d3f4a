package markdown

import (
	"regexp"
	"strings"
)

var styleBlock = regexp.MustCompile(`(?s)<style>.+</style>`)

// BlurbFromMarkdown returns the first paragraph of text. With keepStyle
// false everything from the first <style> to the last </style> in that
// paragraph is removed.
func BlurbFromMarkdown(text string, keepStyle bool) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	blurb, _, _ := strings.Cut(text, "\n\n")

	if keepStyle {
		return blurb
	}
	return styleBlock.ReplaceAllString(blurb, "")
}
