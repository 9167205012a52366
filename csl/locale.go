package csl

import (
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Term is one localizable unit with its singular and plural variants.
type Term struct {
	Single   string
	Multiple string
}

// TermKey addresses a term by name and form; the long form uses an empty
// Form, matching terms declared without a form attribute.
type TermKey struct {
	Name string
	Form string
}

// Locale is one locale definition: either a <locale> block inside a
// style or a standalone locale document. Terms, date layouts and
// style-options are looked up per level; the fallback across levels is
// handled by Chain.
type Locale struct {
	Lang    string
	Terms   map[TermKey]Term
	Dates   map[string]*Element
	Options map[string]string
}

// ParseLocale converts a <locale> element (in-style block or the root of
// a locale file).
func ParseLocale(el *etree.Element, log *zap.Logger) *Locale {
	loc := &Locale{
		Lang:    el.SelectAttrValue("xml:lang", el.SelectAttrValue("lang", "")),
		Terms:   make(map[TermKey]Term),
		Dates:   make(map[string]*Element),
		Options: make(map[string]string),
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "terms":
			parseTerms(child, loc, log)
		case "date":
			form := child.SelectAttrValue("form", "")
			if form == "" {
				log.Warn("Locale date layout without form, ignoring", zap.String("lang", loc.Lang))
				continue
			}
			loc.Dates[form] = parseContainer(KindDate, child, log)
		case "style-options":
			for k, v := range attributes(child) {
				loc.Options[k] = v
			}
		default:
			log.Warn("Unexpected tag in locale, ignoring", zap.String("parent", el.Tag), zap.String("tag", child.Tag))
		}
	}
	return loc
}

func parseTerms(el *etree.Element, loc *Locale, log *zap.Logger) {
	for _, child := range el.ChildElements() {
		if child.Tag != "term" {
			log.Warn("Unexpected tag in terms, ignoring", zap.String("tag", child.Tag))
			continue
		}
		name := child.SelectAttrValue("name", "")
		if name == "" {
			log.Warn("Term without a name, ignoring")
			continue
		}
		key := TermKey{Name: name, Form: child.SelectAttrValue("form", "")}

		var term Term
		single := child.SelectElement("single")
		multiple := child.SelectElement("multiple")
		if single != nil || multiple != nil {
			if single != nil {
				term.Single = strings.TrimSpace(single.Text())
			}
			if multiple != nil {
				term.Multiple = strings.TrimSpace(multiple.Text())
			}
		} else {
			text := strings.TrimSpace(child.Text())
			term.Single = text
			term.Multiple = text
		}
		loc.Terms[key] = term
	}
}

// Term looks up a term in this locale level only.
func (l *Locale) Term(name, form string) (Term, bool) {
	t, ok := l.Terms[TermKey{Name: name, Form: form}]
	return t, ok
}

// Chain is the ordered locale fallback list: in-style exact dialect,
// in-style base language, in-style generic, external dialect file,
// external en-US. Lookups return the first level that defines the unit;
// levels are never merged for the same name.
type Chain struct {
	locales []*Locale
}

// NewChain builds a chain from the given levels, most specific first.
func NewChain(locales ...*Locale) *Chain {
	return &Chain{locales: locales}
}

// Levels returns the number of locales in the chain.
func (c *Chain) Levels() int { return len(c.locales) }

// Term resolves a localized term. The boolean result is false when no
// level in the chain defines the term in the requested form; the caller
// must treat that as "no localized text available", not as an error.
func (c *Chain) Term(name, form string) (Term, bool) {
	for _, loc := range c.locales {
		if t, ok := loc.Term(name, form); ok {
			return t, true
		}
	}
	return Term{}, false
}

// DateFormat resolves a localized date layout ("text" or "numeric").
func (c *Chain) DateFormat(form string) (*Element, bool) {
	for _, loc := range c.locales {
		if d, ok := loc.Dates[form]; ok {
			return d, true
		}
	}
	return nil, false
}

// Option resolves a locale style-option with its documented default.
func (c *Chain) Option(name string) string {
	for _, loc := range c.locales {
		if v, ok := loc.Options[name]; ok {
			return v
		}
	}
	return localeDefaults[name]
}
