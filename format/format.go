// Package format provides the output formatter strategies the rendering
// engine calls through a small fixed capability set: pre-escaping of
// literal text, font styling wrappers and final bibliography entry
// assembly. Plain text, HTML and reStructuredText are interchangeable.
package format

// Formatter is the capability set the engine depends on. Implementations
// must be stateless; the same instance may serve many render passes.
type Formatter interface {
	// Preformat escapes literal text entering the engine (style terms,
	// attribute values, reference fields) for the output markup.
	Preformat(text string) string

	Italic(text string) string
	Bold(text string) string
	Light(text string) string
	Underline(text string) string
	Superscript(text string) string
	Subscript(text string) string
	SmallCaps(text string) string

	// Entry wraps one rendered bibliography entry; key is the citation
	// key of the entry's reference.
	Entry(key, text string) string
}

// Plain renders text unchanged.
type Plain struct{}

func (Plain) Preformat(text string) string   { return text }
func (Plain) Italic(text string) string      { return text }
func (Plain) Bold(text string) string        { return text }
func (Plain) Light(text string) string       { return text }
func (Plain) Underline(text string) string   { return text }
func (Plain) Superscript(text string) string { return text }
func (Plain) Subscript(text string) string   { return text }
func (Plain) SmallCaps(text string) string   { return text }
func (Plain) Entry(_, text string) string    { return text }

// ByName returns the formatter registered under name: "plain", "html"
// or "rst".
func ByName(name string) (Formatter, bool) {
	switch name {
	case "", "plain", "text":
		return Plain{}, true
	case "html":
		return HTML{}, true
	case "rst":
		return RST{}, true
	}
	return nil, false
}
