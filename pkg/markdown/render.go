package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// HelpText is shown next to markdown inputs.
const HelpText = `Enter valid GitHub markdown -
<a href="https://docs.github.com/en/get-started/writing-on-github/getting-started-with-writing-and-formatting-on-github/basic-writing-and-formatting-syntax" target="_blank">see markdown guide</a>.`

// ImageHelpText explains image placeholders to content editors.
const ImageHelpText = `<br>
Upload images alongside the page, and tag them in markdown like so:
<pre>
 <span style="color: #79AEC8"># the URI will replace img&lt;N&gt; when rendered </span>
 ![alt text](img1)

 <span style="color: #79AEC8"># Use an image tag to define size. Defaults to 100% max-width.</span>
 &lt;img src="img2" width=200&gt; </pre>`

// Renderer converts markdown to sanitised HTML. Safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.TaskList,
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Raw HTML is allowed through goldmark and cleaned by bluemonday.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render substitutes image placeholders, converts to HTML and sanitises.
func (r *Renderer) Render(text string, images []Image) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(RenderImageURI(text, images)), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return Sanitize(buf.String()), nil
}

func Sanitize(raw string) string {
	return policy().Sanitize(raw)
}

var (
	policyOnce sync.Once
	ugcPolicy  *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("width", "height", "style").OnElements("img")
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
		p.AllowAttrs("target").OnElements("a")
		p.AllowStyles("max-width", "width", "height", "float", "margin").OnElements("img")
		ugcPolicy = p
	})
	return ugcPolicy
}
