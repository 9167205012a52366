package format

import (
	"fmt"
	"html"

	"github.com/gosimple/slug"
)

// HTML wraps styled runs in tags and escapes literal text. Bibliography
// entries become div elements with stable, slugged anchors so documents
// can link to individual references.
type HTML struct{}

func (HTML) Preformat(text string) string {
	return html.EscapeString(text)
}

func tag(name, text string) string {
	return "<" + name + ">" + text + "</" + name + ">"
}

func (HTML) Italic(text string) string      { return tag("i", text) }
func (HTML) Bold(text string) string        { return tag("b", text) }
func (HTML) Light(text string) string       { return tag("l", text) }
func (HTML) Underline(text string) string   { return tag("u", text) }
func (HTML) Superscript(text string) string { return tag("sup", text) }
func (HTML) Subscript(text string) string   { return tag("sub", text) }

func (HTML) SmallCaps(text string) string {
	return `<span style="font-variant:small-caps;">` + text + `</span>`
}

func (HTML) Entry(key, text string) string {
	return fmt.Sprintf(`<div class="csl-entry" id="ref-%s">%s</div>`, slug.Make(key), text)
}
