// Package csl models parsed Citation Style Language documents: the style
// element tree, in-style and external locales, and the ordered locale
// fallback chain used for term, date-format and option resolution.
// Loading is done with etree; the resulting tree is read-only, all
// render-time state lives with the renderer.
package csl

import "strings"

// Kind enumerates the closed set of CSL rendering elements. Dispatch in
// the renderer is a switch over Kind, not virtual dispatch; the set is
// fixed by the CSL schema.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindText
	KindNumber
	KindDate
	KindDatePart
	KindNames
	KindName
	KindNamePart
	KindEtAl
	KindLabel
	KindGroup
	KindChoose
	KindIf
	KindElseIf
	KindElse
	KindMacro
	KindLayout
	KindSort
	KindKey
	KindSubstitute
)

var kindNames = map[Kind]string{
	KindText:       "text",
	KindNumber:     "number",
	KindDate:       "date",
	KindDatePart:   "date-part",
	KindNames:      "names",
	KindName:       "name",
	KindNamePart:   "name-part",
	KindEtAl:       "et-al",
	KindLabel:      "label",
	KindGroup:      "group",
	KindChoose:     "choose",
	KindIf:         "if",
	KindElseIf:     "else-if",
	KindElse:       "else",
	KindMacro:      "macro",
	KindLayout:     "layout",
	KindSort:       "sort",
	KindKey:        "key",
	KindSubstitute: "substitute",
}

var kindByTag = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, tag := range kindNames {
		m[tag] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Element is one node of the parsed style tree: a kind, its attribute
// bag and children in document order. Read-only after parsing.
type Element struct {
	Kind     Kind
	Attrs    map[string]string
	Children []*Element
}

// Attr returns the attribute value or def when absent.
func (e *Element) Attr(name, def string) string {
	if v, ok := e.Attrs[name]; ok {
		return v
	}
	return def
}

// HasAttr reports attribute presence.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attrs[name]
	return ok
}

// BoolAttr interprets the attribute as a CSL boolean ("true"/"false").
func (e *Element) BoolAttr(name string, def bool) bool {
	v, ok := e.Attrs[name]
	if !ok {
		return def
	}
	return strings.EqualFold(v, "true")
}

// FirstChild returns the first child of the given kind, or nil.
func (e *Element) FirstChild(kind Kind) *Element {
	for _, c := range e.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Area is the citation or bibliography section of a style: its option
// bag (inheritable name options, note distance, whitespace hints), the
// layout subtree and the optional sort specification.
type Area struct {
	Options map[string]string
	Layout  *Element
	Sort    *Element
}

// Option resolves an area option falling back to area defaults and then
// to the style-wide inheritable defaults.
func (a *Area) Option(name string) string {
	if a != nil {
		if v, ok := a.Options[name]; ok {
			return v
		}
	}
	if v, ok := inheritableDefaults[name]; ok {
		return v
	}
	return ""
}

// Style is a parsed CSL style document.
type Style struct {
	Class         string
	DefaultLocale string
	Options       map[string]string
	Macros        map[string]*Element
	Citation      *Area
	Bibliography  *Area
	Locales       []*Locale // in-style locale overrides, document order
}

// HasBibliography reports whether the style defines a bibliography.
func (s *Style) HasBibliography() bool { return s.Bibliography != nil }

// Macro returns the named macro subtree.
func (s *Style) Macro(name string) (*Element, bool) {
	m, ok := s.Macros[name]
	return m, ok
}

// Option resolves a style-level option with the global defaults table.
func (s *Style) Option(name string) string {
	if v, ok := s.Options[name]; ok {
		return v
	}
	if v, ok := styleDefaults[name]; ok {
		return v
	}
	if v, ok := inheritableDefaults[name]; ok {
		return v
	}
	return ""
}

// Default option tables. A consumer always goes through the explicit
// resolution chain element -> area -> style -> these tables; options
// with an empty default mean "not set".
var (
	styleDefaults = map[string]string{
		"initialize-with-hyphen":       "true",
		"page-range-format":            "",
		"demote-non-dropping-particle": "display-and-sort",
	}

	inheritableDefaults = map[string]string{
		"and":                        "",
		"delimiter-precedes-et-al":   "contextual",
		"delimiter-precedes-last":    "contextual",
		"et-al-min":                  "0",
		"et-al-use-first":            "1",
		"et-al-subsequent-min":       "0",
		"et-al-subsequent-use-first": "1",
		"et-al-use-last":             "false",
		"initialize-with":            "",
		"name-as-sort-order":         "",
		"sort-separator":             ", ",

		"name-form":       "long",
		"name-delimiter":  ", ",
		"names-delimiter": "",
	}

	citationDefaults = map[string]string{
		"near-note-distance": "5",
	}

	localeDefaults = map[string]string{
		"limit-day-ordinals-to-day-1": "false",
		"punctuation-in-quote":        "false",
	}
)

// CitationOption resolves options specific to the citation area
// (currently only near-note-distance carries a default).
func (s *Style) CitationOption(name string) string {
	if s.Citation != nil {
		if v, ok := s.Citation.Options[name]; ok {
			return v
		}
	}
	if v, ok := citationDefaults[name]; ok {
		return v
	}
	return ""
}
