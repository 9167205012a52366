package format

import "strings"

// RST emits reStructuredText roles for the styles the markup supports;
// light, underline and small-caps have no rst equivalent and pass
// through unchanged.
type RST struct{}

var rstEscaper = strings.NewReplacer("*", `\*`, "`", "\\`")

func (RST) Preformat(text string) string {
	return rstEscaper.Replace(text)
}

func role(name, text string) string {
	return ":" + name + ":`" + text + "`"
}

func (RST) Italic(text string) string      { return role("emphasis", text) }
func (RST) Bold(text string) string        { return role("strong", text) }
func (RST) Light(text string) string       { return text }
func (RST) Underline(text string) string   { return text }
func (RST) Superscript(text string) string { return role("superscript", text) }
func (RST) Subscript(text string) string   { return role("subscript", text) }
func (RST) SmallCaps(text string) string   { return text }
func (RST) Entry(_, text string) string    { return text }
