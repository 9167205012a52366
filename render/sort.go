package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"

	"citeproc/bib"
	"citeproc/csl"
)

// sortKey is one extracted comparison key. Items whose key could not be
// produced (missing variable) sort after every item that has one, in
// both directions.
type sortKey struct {
	value   string
	present bool
}

// sortItems orders the citation items per the area's <sort> element,
// stably, so ties keep their registration order. A nil sort element
// leaves the order untouched.
func (rc *renderCtx) sortItems(items []*bib.CitationItem) {
	if rc.area.Sort == nil {
		return
	}

	var keyEls []*csl.Element
	for _, child := range rc.area.Sort.Children {
		if child.Kind == csl.KindKey {
			keyEls = append(keyEls, child)
		}
	}
	if len(keyEls) == 0 {
		return
	}

	keys := make([][]sortKey, len(items))
	for i, it := range items {
		keys[i] = make([]sortKey, len(keyEls))
		for j, keyEl := range keyEls {
			keys[i][j] = rc.extractKey(keyEl, it)
		}
	}

	descending := make([]bool, len(keyEls))
	for j, keyEl := range keyEls {
		descending[j] = keyEl.Attr("sort", "ascending") == "descending"
	}

	sort.SliceStable(items, func(a, b int) bool {
		for j := range keyEls {
			ka, kb := keys[a][j], keys[b][j]
			if ka.present != kb.present {
				return ka.present
			}
			if !ka.present || ka.value == kb.value {
				continue
			}
			less := natural.Less(ka.value, kb.value)
			if descending[j] {
				return !less
			}
			return less
		}
		return false
	})
}

// extractKey produces the comparison string of one <key> element for one
// item. Name variables use sort order with the style's demotion rules,
// date variables their fixed-width chronological key, number variables
// the leading integer; macro keys are rendered with every name forced
// into sort order.
func (rc *renderCtx) extractKey(keyEl *csl.Element, it *bib.CitationItem) sortKey {
	if macroName, ok := keyEl.Attrs["macro"]; ok {
		return rc.extractMacroKey(keyEl, macroName, it)
	}

	variable := keyEl.Attr("variable", "")
	ref := rc.reference(it)
	switch {
	case variable == "citation-number":
		return sortKey{value: rc.s.citationNumber(it.Key), present: true}
	case containsString(bib.NameVariables, variable):
		names, err := ref.Names(variable)
		if err != nil {
			return sortKey{}
		}
		return sortKey{value: strings.ToLower(nameSortKey(names, rc.s.style)), present: true}
	case containsString(bib.DateVariables, variable):
		date, err := ref.Date(variable)
		if err != nil {
			return sortKey{}
		}
		return sortKey{value: date.SortKey(), present: true}
	case containsString(bib.NumberVariables, variable):
		value, err := ref.Text(variable)
		if err != nil {
			return sortKey{}
		}
		m := leadingNumber.FindString(value)
		if m == "" {
			return sortKey{value: strings.ToLower(value), present: true}
		}
		n, _ := strconv.Atoi(m)
		return sortKey{value: padNumberKey(n), present: true}
	default:
		value, ok := ref.Value(variable)
		if !ok {
			return sortKey{}
		}
		return sortKey{value: strings.ToLower(value), present: true}
	}
}

// extractMacroKey renders a macro for sorting on a throwaway context with
// plain output: names in sort order throughout, et-al limits overridden
// by the key's names-min/names-use-first/names-use-last attributes.
func (rc *renderCtx) extractMacroKey(keyEl *csl.Element, macroName string, it *bib.CitationItem) sortKey {
	macro, ok := rc.s.style.Macro(macroName)
	if !ok {
		return sortKey{}
	}

	sub := rc.s.newCtx(rc.area, rc.bibliography)
	sub.sortOptions = map[string]string{"name-as-sort-order": "all"}
	for attr, option := range map[string]string{
		"names-min":       "et-al-min",
		"names-use-first": "et-al-use-first",
		"names-use-last":  "et-al-use-last",
	} {
		if v, ok := keyEl.Attrs[attr]; ok {
			sub.sortOptions[option] = v
		}
	}

	text, err := sub.renderChildren(macro, it)
	if err != nil || text == "" {
		return sortKey{}
	}
	return sortKey{value: strings.ToLower(text), present: true}
}

// nameSortKey joins all names of a variable in strict sort order:
// family block first, then given, with the non-dropping particle placed
// by the style's demote-non-dropping-particle setting.
func nameSortKey(names []bib.Name, style *csl.Style) string {
	demote := strings.ToLower(style.Option("demote-non-dropping-particle"))
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if name.IsLiteral() {
			keys = append(keys, name.Literal)
			continue
		}
		var family, given string
		if demote == "never" {
			family = joinNonEmpty(" ", name.NonDroppingParticle, name.Family)
			given = joinNonEmpty(" ", name.Given, name.DroppingParticle)
		} else {
			family = name.Family
			given = joinNonEmpty(" ", name.Given, name.DroppingParticle, name.NonDroppingParticle)
		}
		keys = append(keys, joinNonEmpty(", ", family, given, name.Suffix))
	}
	return strings.Join(keys, ";")
}

func padNumberKey(n int) string {
	digits := strconv.Itoa(n)
	if len(digits) >= 8 {
		return digits
	}
	return strings.Repeat("0", 8-len(digits)) + digits
}
