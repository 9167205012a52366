package render

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"citeproc/bib"
	"citeproc/csl"
	"citeproc/format"
)

// Session drives one processing run: citations registered in document
// order, rendered in-text one by one, and a bibliography produced at the
// end. It owns the first-citation ordering and the cite history that
// position tests consult.
type Session struct {
	style     *csl.Style
	locales   *csl.Chain
	source    bib.Source
	formatter format.Formatter
	log       *zap.Logger

	keys    []string
	items   []*bib.CitationItem
	history []*bib.CitationItem
}

func NewSession(style *csl.Style, locales *csl.Chain, source bib.Source, formatter format.Formatter, log *zap.Logger) *Session {
	if formatter == nil {
		formatter = format.Plain{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		style:     style,
		locales:   locales,
		source:    source,
		formatter: formatter,
		log:       log,
	}
}

// Register records the citation's items for the bibliography. The first
// citation of each key fixes its position; items whose key the source
// does not know are left for Cite to flag.
func (s *Session) Register(citation *bib.Citation) error {
	if citation == nil {
		return errors.New("render: nil citation")
	}
	for _, it := range citation.Items {
		if _, ok := s.source.Lookup(it.Key); !ok {
			s.log.Warn("Citation key not in source", zap.String("key", it.Key))
			continue
		}
		if s.bibliographyIndex(it.Key) < 0 {
			s.keys = append(s.keys, it.Key)
			s.items = append(s.items, it)
		}
	}
	return nil
}

// Sort orders the registered items by the bibliography's <sort> element.
// Without one the first-citation order stands.
func (s *Session) Sort() {
	if s.style.Bibliography == nil {
		return
	}
	rc := s.newCtx(s.style.Bibliography, true)
	rc.sortItems(s.items)
	s.keys = s.keys[:0]
	for _, it := range s.items {
		s.keys = append(s.keys, it.Key)
	}
}

func (s *Session) bibliographyIndex(key string) int {
	for i, k := range s.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// citationNumber is the 1-based bibliography position of a key, the
// value of the generated citation-number variable.
func (s *Session) citationNumber(key string) string {
	i := s.bibliographyIndex(key)
	if i < 0 {
		return ""
	}
	return strconv.Itoa(i + 1)
}

// Cite renders one in-text citation. Items with known keys are ordered
// by bibliography position and then by the citation's own <sort>
// element; items with unknown keys stay at their original positions and
// render through notFound, or as "key?" when notFound is nil. Every
// successfully rendered item joins the history that position tests use.
func (s *Session) Cite(citation *bib.Citation, notFound func(key string) string) (string, error) {
	area := s.style.Citation
	if area == nil || area.Layout == nil {
		return "", errors.New("render: style has no citation layout")
	}

	var good []*bib.CitationItem
	bad := make(map[*bib.CitationItem]bool)
	for _, it := range citation.Items {
		if _, ok := s.source.Lookup(it.Key); ok {
			good = append(good, it)
		} else {
			bad[it] = true
		}
	}

	rc := s.newCtx(area, false)
	sortByBibliography(good, s)
	rc.sortItems(good)

	var out []string
	next := 0
	for _, it := range citation.Items {
		if bad[it] {
			if notFound != nil {
				out = append(out, s.formatter.Preformat(notFound(it.Key)))
			} else {
				out = append(out, s.formatter.Preformat(it.Key+"?"))
			}
			continue
		}
		sorted := good[next]
		next++

		itemCtx := s.newCtx(area, false)
		text, err := itemCtx.renderChildren(area.Layout, sorted)
		if err != nil {
			if errors.Is(err, bib.ErrMissingVariable) {
				continue
			}
			return "", fmt.Errorf("render: citing %s: %w", sorted.Key, err)
		}
		if text == "" {
			continue
		}
		out = append(out, s.formatter.Preformat(sorted.Prefix)+text+s.formatter.Preformat(sorted.Suffix))
		s.history = append(s.history, sorted)
	}

	layout := area.Layout
	text := rc.join(layout, out, "")
	return rc.wrap(layout, rc.fontFormat(layout, text)), nil
}

// sortByBibliography stably pre-orders citation items by their
// bibliography position so that an unsorted citation still lists works
// the way the bibliography does.
func sortByBibliography(items []*bib.CitationItem, s *Session) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && s.bibliographyIndex(items[j].Key) < s.bibliographyIndex(items[j-1].Key); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// Bibliography renders one formatted entry per registered item, in the
// current (possibly sorted) order. Entries that render empty are
// dropped. Rendering is repeatable: no session state changes here.
func (s *Session) Bibliography() ([]string, error) {
	area := s.style.Bibliography
	if area == nil || area.Layout == nil {
		return nil, errors.New("render: style has no bibliography layout")
	}

	entries := make([]string, 0, len(s.items))
	for _, it := range s.items {
		rc := s.newCtx(area, true)
		text, err := rc.renderChildren(area.Layout, it)
		if err != nil {
			if errors.Is(err, bib.ErrMissingVariable) {
				continue
			}
			return nil, fmt.Errorf("render: bibliography entry %s: %w", it.Key, err)
		}
		if text == "" {
			continue
		}
		text = rc.wrap(area.Layout, rc.fontFormat(area.Layout, text))
		entries = append(entries, s.formatter.Entry(it.Key, text))
	}
	return entries, nil
}
