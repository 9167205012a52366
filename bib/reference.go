// Package bib defines the canonical bibliographic records the rendering
// engine consumes: references keyed by citation key, structured names,
// (partial) dates and date ranges, citations and per-citation items.
// Format adapters (CSL-JSON, SQLite libraries) normalize their input to
// these shapes before any rendering happens.
package bib

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingVariable signals that a reference does not carry a requested
// variable. The interpreter relies on this condition to implement the
// implicit conditional suppression of CSL, so it must stay distinguishable
// from any other lookup failure. Check with errors.Is.
var ErrMissingVariable = errors.New("variable missing")

func missing(name string) error {
	return fmt.Errorf("%s: %w", name, ErrMissingVariable)
}

// Variable classes per the CSL specification. Sort keys and adapters use
// these to decide how a variable value is extracted and compared.
var (
	NameVariables = []string{
		"author", "collection-editor", "composer", "container-author",
		"editor", "editorial-director", "illustrator", "interviewer",
		"original-author", "recipient", "translator",
	}
	DateVariables = []string{
		"accessed", "container", "event-date", "issued", "original-date",
		"submitted",
	}
	NumberVariables = []string{
		"chapter-number", "collection-number", "edition", "issue", "number",
		"number-of-pages", "number-of-volumes", "volume",
	}
)

// IsNameVariable reports whether name designates a name-list variable.
func IsNameVariable(name string) bool { return contains(NameVariables, name) }

// IsDateVariable reports whether name designates a date variable.
func IsDateVariable(name string) bool { return contains(DateVariables, name) }

// IsNumberVariable reports whether name designates a numeric variable.
func IsNumberVariable(name string) bool { return contains(NumberVariables, name) }

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// Name is a single contributor: either a literal (institution) name or a
// structured personal name. Immutable once constructed.
type Name struct {
	Literal             string
	Given               string
	Family              string
	DroppingParticle    string
	NonDroppingParticle string
	Suffix              string
}

// IsLiteral reports whether the name is an unstructured organization name.
func (n Name) IsLiteral() bool { return n.Literal != "" }

// Reference is one bibliographic record: a citation key, a CSL item type
// and typed variables. Variable names use the hyphenated CSL spelling
// ("container-title", "event-date").
type Reference struct {
	Key  string
	Type string

	texts map[string]string
	names map[string][]Name
	dates map[string]DateVariable
}

// NewReference creates an empty record of the given item type.
func NewReference(key, itemType string) *Reference {
	return &Reference{
		Key:   key,
		Type:  itemType,
		texts: make(map[string]string),
		names: make(map[string][]Name),
		dates: make(map[string]DateVariable),
	}
}

// SetText stores a plain string or number variable.
func (r *Reference) SetText(name, value string) { r.texts[name] = value }

// SetNames stores a name-list variable in declared order.
func (r *Reference) SetNames(name string, names []Name) { r.names[name] = names }

// SetDate stores a date variable.
func (r *Reference) SetDate(name string, date DateVariable) { r.dates[name] = date }

// Text returns a plain variable or ErrMissingVariable.
func (r *Reference) Text(name string) (string, error) {
	if v, ok := r.texts[name]; ok {
		return v, nil
	}
	return "", missing(name)
}

// Names returns a name-list variable or ErrMissingVariable.
func (r *Reference) Names(name string) ([]Name, error) {
	if v, ok := r.names[name]; ok {
		return v, nil
	}
	return nil, missing(name)
}

// Date returns a date variable or ErrMissingVariable.
func (r *Reference) Date(name string) (DateVariable, error) {
	if v, ok := r.dates[name]; ok {
		return v, nil
	}
	return nil, missing(name)
}

// Has reports whether the reference carries the variable in any class.
func (r *Reference) Has(name string) bool {
	if _, ok := r.texts[name]; ok {
		return true
	}
	if _, ok := r.names[name]; ok {
		return true
	}
	_, ok := r.dates[name]
	return ok
}

// Value returns a string rendition of any variable class, used by the
// sort engine for fallback comparisons.
func (r *Reference) Value(name string) (string, bool) {
	if v, ok := r.texts[name]; ok {
		return v, true
	}
	if v, ok := r.dates[name]; ok {
		return v.SortKey(), true
	}
	if v, ok := r.names[name]; ok {
		parts := make([]string, 0, len(v))
		for _, n := range v {
			if n.IsLiteral() {
				parts = append(parts, n.Literal)
			} else {
				parts = append(parts, strings.TrimSpace(n.Family+" "+n.Given))
			}
		}
		return strings.Join(parts, "; "), true
	}
	return "", false
}

// Language returns the two-letter language code of the record, or the
// empty string when the language variable is absent.
func (r *Reference) Language() string {
	lang, err := r.Text("language")
	if err != nil {
		return ""
	}
	if len(lang) > 2 {
		lang = lang[:2]
	}
	return lang
}

func (r *Reference) String() string {
	return fmt.Sprintf("Reference(%s)", r.Key)
}

// Source is a collection of references addressed by citation key.
type Source map[string]*Reference

// Add registers the reference under its key, replacing any previous entry.
func (s Source) Add(ref *Reference) { s[ref.Key] = ref }

// Lookup returns the reference for key.
func (s Source) Lookup(key string) (*Reference, bool) {
	ref, ok := s[key]
	return ref, ok
}
