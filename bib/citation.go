package bib

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Locator pins a citation to a place inside the cited work, e.g.
// {Label: "page", Identifier: "12-15"}.
type Locator struct {
	Label      string
	Identifier string
}

// Equal compares label and identifier.
func (l *Locator) Equal(other *Locator) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Label == other.Label && l.Identifier == other.Identifier
}

// CitationItem is one occurrence of a work inside a citation, wrapping
// the reference key with per-citation overrides. The owning session
// resolves the key to a Reference and assigns the bibliography number;
// the item itself never holds a pointer back to the session.
type CitationItem struct {
	Key     string
	Locator *Locator
	Prefix  string
	Suffix  string

	citation *Citation
}

// NewCitationItem creates an item for the given reference key.
func NewCitationItem(key string) *CitationItem {
	return &CitationItem{Key: key}
}

// WithLocator returns the item with a locator attached.
func (ci *CitationItem) WithLocator(label, identifier string) *CitationItem {
	ci.Locator = &Locator{Label: label, Identifier: identifier}
	return ci
}

// HasLocator reports whether a locator is attached.
func (ci *CitationItem) HasLocator() bool { return ci.Locator != nil }

// Citation returns the owning citation, nil until the item is part of one.
func (ci *CitationItem) Citation() *Citation { return ci.citation }

func (ci *CitationItem) String() string {
	return fmt.Sprintf("CitationItem(%s)", ci.Key)
}

// Citation is an ordered group of items cited together (one footnote may
// cite several works). ID is assigned at construction and is only used
// for log correlation.
type Citation struct {
	ID        string
	Items     []*CitationItem
	NoteIndex int
}

// NewCitation groups the items into a citation and claims ownership.
func NewCitation(items ...*CitationItem) *Citation {
	c := &Citation{ID: uuid.NewString(), Items: items}
	for _, item := range items {
		item.citation = c
	}
	return c
}

func (c *Citation) String() string {
	keys := make([]string, len(c.Items))
	for i, item := range c.Items {
		keys[i] = item.Key
	}
	return fmt.Sprintf("Citation(%s)", strings.Join(keys, ", "))
}
