// Package render implements the CSL style interpreter: recursive
// evaluation of the style's rendering elements against citation items,
// the name/date/number/label formatting algorithms, the multi-key sort
// engine and the citation/bibliography session orchestrating it all.
package render

import (
	"errors"
	"strconv"
	"strings"

	"citeproc/bib"
	"citeproc/csl"
)

const (
	enDash   = "–"
	ellipsis = "…"
)

// errConditionFailed is the internal control-flow signal of <choose>; it
// never leaves renderChoose.
var errConditionFailed = errors.New("condition failed")

// renderCtx carries the state of one top-level render pass: one citation
// or one bibliography entry. The repressed map records variables already
// emitted through <substitute> so sibling elements skip them; it is
// created fresh for every pass and never shared.
type renderCtx struct {
	s            *Session
	area         *csl.Area
	bibliography bool
	repressed    map[csl.Kind]map[string]bool
	sortOptions  map[string]string
}

func (s *Session) newCtx(area *csl.Area, bibliography bool) *renderCtx {
	return &renderCtx{
		s:            s,
		area:         area,
		bibliography: bibliography,
		repressed:    make(map[csl.Kind]map[string]bool),
	}
}

func (rc *renderCtx) reference(it *bib.CitationItem) *bib.Reference {
	ref, _ := rc.s.source.Lookup(it.Key)
	return ref
}

func (rc *renderCtx) repress(kind csl.Kind, variable string) {
	if rc.repressed[kind] == nil {
		rc.repressed[kind] = make(map[string]bool)
	}
	rc.repressed[kind][variable] = true
}

func (rc *renderCtx) isRepressed(kind csl.Kind, variable string) bool {
	return rc.repressed[kind][variable]
}

// term resolves a localized term through the locale chain, preformatted
// for the active output markup. The long form is looked up with an
// empty form attribute.
func (rc *renderCtx) term(name, form string) (csl.Term, bool) {
	if form == "long" {
		form = ""
	}
	t, ok := rc.s.locales.Term(name, form)
	if !ok {
		return csl.Term{}, false
	}
	t.Single = rc.s.formatter.Preformat(t.Single)
	t.Multiple = rc.s.formatter.Preformat(t.Multiple)
	return t, true
}

// nameOption resolves an inheritable name option for a <name> element:
// sort overrides first, then the element attribute, then the enclosing
// citation/bibliography options (where form and delimiter are spelled
// name-form/name-delimiter), then the style-wide defaults.
func (rc *renderCtx) nameOption(el *csl.Element, name string) string {
	if rc.sortOptions != nil {
		if v, ok := rc.sortOptions[name]; ok {
			return v
		}
	}
	if el != nil {
		if v, ok := el.Attrs[name]; ok {
			return v
		}
	}
	areaName := name
	if name == "form" || name == "delimiter" {
		areaName = "name-" + name
	}
	return rc.area.Option(areaName)
}

func (rc *renderCtx) nameOptionInt(el *csl.Element, name string) int {
	v, err := strconv.Atoi(rc.nameOption(el, name))
	if err != nil {
		return 0
	}
	return v
}

func (rc *renderCtx) nameOptionBool(el *csl.Element, name string) bool {
	return strings.EqualFold(rc.nameOption(el, name), "true")
}

// wrap applies the element's prefix/suffix.
func (rc *renderCtx) wrap(el *csl.Element, text string) string {
	if text == "" {
		return ""
	}
	return rc.s.formatter.Preformat(el.Attr("prefix", "")) + text +
		rc.s.formatter.Preformat(el.Attr("suffix", ""))
}

// fontFormat applies font-style, font-variant, font-weight,
// text-decoration and vertical-align through the formatter strategy.
func (rc *renderCtx) fontFormat(el *csl.Element, text string) string {
	if text == "" {
		return ""
	}
	f := rc.s.formatter
	switch el.Attr("font-style", "normal") {
	case "italic", "oblique":
		text = f.Italic(text)
	}
	if el.Attr("font-variant", "normal") == "small-caps" {
		text = f.SmallCaps(text)
	}
	switch el.Attr("font-weight", "normal") {
	case "bold":
		text = f.Bold(text)
	case "light":
		text = f.Light(text)
	}
	if el.Attr("text-decoration", "none") == "underline" {
		text = f.Underline(text)
	}
	switch el.Attr("vertical-align", "baseline") {
	case "sup":
		text = f.Superscript(text)
	case "sub":
		text = f.Subscript(text)
	}
	return text
}

// quote surrounds the text with localized quotation marks when the
// element requests them.
func (rc *renderCtx) quote(el *csl.Element, text string) string {
	if text == "" || !el.BoolAttr("quotes", false) {
		return text
	}
	open, okOpen := rc.term("open-quote", "")
	close_, okClose := rc.term("close-quote", "")
	if !okOpen || !okClose {
		return text
	}
	return open.Single + text + close_.Single
}

func (rc *renderCtx) stripPeriods(el *csl.Element, text string) string {
	if el.BoolAttr("strip-periods", false) {
		return strings.ReplaceAll(text, ".", "")
	}
	return text
}

// join concatenates the non-empty parts with the element's delimiter.
func (rc *renderCtx) join(el *csl.Element, parts []string, def string) string {
	delimiter := el.Attr("delimiter", def)
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, delimiter)
}

// finish applies the common tail of most rendering elements:
// strip-periods, text-case and font formatting, then affixes.
func (rc *renderCtx) finish(el *csl.Element, text, lang string) string {
	if text == "" {
		return ""
	}
	text = rc.fontFormat(el, applyCase(el.Attr("text-case", ""), rc.stripPeriods(el, text), lang))
	return rc.wrap(el, text)
}
