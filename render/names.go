package render

import (
	"errors"
	"strconv"
	"strings"

	"citeproc/bib"
	"citeproc/csl"
)

// renderNames resolves a <names> element: one or more role variables
// formatted through the child <name> element, an optional adjacent
// <label>, and the <substitute> fallback when every role is empty.
// namesCtx supplies the <name>/<label>/<substitute> configuration; it
// differs from el only when a bare <names> inside <substitute> reuses
// its parent's children.
func (rc *renderCtx) renderNames(el *csl.Element, it *bib.CitationItem, namesCtx *csl.Element) (string, error) {
	ref := rc.reference(it)
	roles := strings.Fields(el.Attr("variable", ""))

	// editor and translator collapse into one editortranslator entry when
	// both lists are identical and the locale knows the combined term
	editorTranslator := false
	if len(roles) == 2 && containsString(roles, "editor") && containsString(roles, "translator") {
		editors, errE := ref.Names("editor")
		translators, errT := ref.Names("translator")
		if errE == nil && errT == nil && sameNames(editors, translators) {
			if _, ok := rc.term("editortranslator", ""); ok {
				editorTranslator = true
				roles = []string{"editor"}
			}
		}
	}

	nameEl := namesCtx.FirstChild(csl.KindName)
	if nameEl == nil {
		nameEl = &csl.Element{Kind: csl.KindName, Attrs: map[string]string{}}
	}
	labelEl := namesCtx.FirstChild(csl.KindLabel)
	labelFirst := labelEl != nil && len(namesCtx.Children) > 0 && namesCtx.Children[0] == labelEl
	countForm := rc.nameOption(nameEl, "form") == "count"

	var output []string
	total := 0
	for _, role := range roles {
		names, err := ref.Names(role)
		if err != nil {
			continue
		}
		if countForm {
			n, _ := strconv.Atoi(rc.formatNames(nameEl, namesCtx, names))
			total += n
			output = append(output, "")
			continue
		}
		text := rc.formatNames(nameEl, namesCtx, names)
		if labelEl != nil {
			labelRole := role
			if editorTranslator {
				labelRole = "editortranslator"
			}
			plural := len(names) > 1
			label, err := rc.renderLabel(labelEl, it, labelRole, &plural)
			if err != nil {
				return "", err
			}
			if label != "" {
				if labelFirst {
					text = label + text
				} else {
					text += label
				}
			}
		}
		output = append(output, text)
	}

	if len(output) > 0 {
		var text string
		if countForm {
			if total > 0 {
				text = strconv.Itoa(total)
			}
		} else {
			text = rc.join(el, output, rc.area.Option("names-delimiter"))
		}
		return rc.wrap(el, rc.fontFormat(el, text)), nil
	}

	// every role came up empty: try the substitute children in order. The
	// lookup is on el, not namesCtx, so a bare <names> inside <substitute>
	// has no substitute of its own and terminates here.
	substitute := el.FirstChild(csl.KindSubstitute)
	if substitute == nil {
		return "", bib.ErrMissingVariable
	}
	for _, child := range substitute.Children {
		var (
			text string
			err  error
		)
		if child.Kind == csl.KindNames && len(child.Children) == 0 {
			text, err = rc.renderNames(child, it, namesCtx)
		} else {
			text, err = rc.render(child, it)
		}
		if err != nil {
			if errors.Is(err, bib.ErrMissingVariable) {
				continue
			}
			return "", err
		}
		if text != "" {
			// record the substitution so siblings addressing the same
			// variable render nothing for the rest of this pass
			rc.repress(child.Kind, child.Attr("variable", ""))
			return rc.wrap(el, rc.fontFormat(el, text)), nil
		}
	}
	return "", nil
}

func sameNames(a, b []bib.Name) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// nameListOptions gathers the resolved inheritable options of a <name>
// element for one formatting run.
type nameListOptions struct {
	and                   string
	delimiter             string
	delimiterPrecedesEtAl string
	delimiterPrecedesLast string
	etAlMin               int
	etAlUseFirst          int
	etAlUseLast           bool
	initializeWith        string
	nameAsSortOrder       string
	sortSeparator         string
	form                  string
	demoteNonDropping     string
	initializeWithHyphen  bool
}

func (rc *renderCtx) nameListOptionsFor(el *csl.Element) nameListOptions {
	return nameListOptions{
		and:                   rc.nameOption(el, "and"),
		delimiter:             rc.nameOption(el, "delimiter"),
		delimiterPrecedesEtAl: rc.nameOption(el, "delimiter-precedes-et-al"),
		delimiterPrecedesLast: rc.nameOption(el, "delimiter-precedes-last"),
		etAlMin:               rc.nameOptionInt(el, "et-al-min"),
		etAlUseFirst:          rc.nameOptionInt(el, "et-al-use-first"),
		etAlUseLast:           rc.nameOptionBool(el, "et-al-use-last"),
		initializeWith:        rc.nameOption(el, "initialize-with"),
		nameAsSortOrder:       rc.nameOption(el, "name-as-sort-order"),
		sortSeparator:         rc.nameOption(el, "sort-separator"),
		form:                  rc.nameOption(el, "form"),
		demoteNonDropping:     strings.ToLower(rc.s.style.Option("demote-non-dropping-particle")),
		initializeWithHyphen:  strings.EqualFold(rc.s.style.Option("initialize-with-hyphen"), "true"),
	}
}

// formatNames renders one name list per the resolved options: count
// form, et-al truncation, per-name ordering, initials and joining.
func (rc *renderCtx) formatNames(nameEl, namesCtx *csl.Element, names []bib.Name) string {
	opts := rc.nameListOptionsFor(nameEl)

	if opts.form == "count" {
		count := len(names)
		if count > opts.etAlUseFirst {
			count = opts.etAlUseFirst
		}
		return strconv.Itoa(count)
	}

	var andTerm string
	switch opts.and {
	case "text":
		if t, ok := rc.term("and", ""); ok {
			andTerm = t.Single
		}
	case "symbol":
		andTerm = rc.s.formatter.Preformat("&")
	}

	etAlTruncate := len(names) > 1 && opts.etAlMin > 0 && len(names) >= opts.etAlMin
	etAlLast := opts.etAlUseLast && opts.etAlUseFirst <= opts.etAlMin-2
	if etAlTruncate {
		useFirst := opts.etAlUseFirst
		if useFirst > len(names) {
			useFirst = len(names)
		}
		if etAlLast {
			truncated := append([]bib.Name(nil), names[:useFirst]...)
			names = append(truncated, names[len(names)-1])
		} else {
			names = names[:useFirst]
		}
	}

	output := make([]string, 0, len(names))
	for i, name := range names {
		output = append(output, rc.formatSingleName(nameEl, name, i == 0, opts))
	}

	switch {
	case etAlTruncate:
		etAl := rc.etAlText(nameEl, namesCtx)
		if etAl == "" {
			return strings.Join(output, opts.delimiter)
		}
		if etAlLast {
			output[len(output)-1] = ellipsis + " " + output[len(output)-1]
			return strings.Join(output, opts.delimiter)
		}
		if opts.delimiterPrecedesEtAl == "always" ||
			(opts.delimiterPrecedesEtAl == "contextual" && len(output) >= 2) {
			return strings.Join(append(output, etAl), opts.delimiter)
		}
		return strings.Join(output, opts.delimiter) + " " + etAl
	case andTerm != "" && len(output) > 1:
		text := strings.Join(output[:len(output)-1], opts.delimiter)
		if opts.delimiterPrecedesLast == "always" ||
			(opts.delimiterPrecedesLast == "contextual" && len(output) > 2) {
			text += opts.delimiter
		} else {
			text += " "
		}
		return text + andTerm + " " + output[len(output)-1]
	default:
		return strings.Join(output, opts.delimiter)
	}
}

// formatSingleName orders the parts of one name: sort order with
// particle demotion for long form when name-as-sort-order applies,
// display order otherwise, family only for short form. Literal
// (organization) names render verbatim.
func (rc *renderCtx) formatSingleName(nameEl *csl.Element, name bib.Name, first bool, opts nameListOptions) string {
	if name.IsLiteral() {
		return rc.s.formatter.Preformat(name.Literal)
	}

	given := rc.s.formatter.Preformat(name.Given)
	family := rc.s.formatter.Preformat(name.Family)
	dp := rc.s.formatter.Preformat(name.DroppingParticle)
	ndp := rc.s.formatter.Preformat(name.NonDroppingParticle)
	suffix := rc.s.formatter.Preformat(name.Suffix)

	if given != "" && opts.initializeWith != "" {
		given = initialize(given, opts.initializeWith, opts.initializeWithHyphen)
	}

	switch opts.form {
	case "short":
		family = joinNonEmpty(" ", ndp, family)
		_, family = rc.formatNameParts(nameEl, given, family)
		return family
	default: // long
		sortOrder := opts.nameAsSortOrder == "all" || (opts.nameAsSortOrder == "first" && first)
		if sortOrder {
			if opts.demoteNonDropping == "never" || opts.demoteNonDropping == "sort-only" {
				family = joinNonEmpty(" ", ndp, family)
				given = joinNonEmpty(" ", given, dp)
			} else {
				given = joinNonEmpty(" ", given, dp, ndp)
			}
			given, family = rc.formatNameParts(nameEl, given, family)
			return joinNonEmpty(opts.sortSeparator, family, given, suffix)
		}
		family = joinNonEmpty(" ", dp, ndp, family)
		given, family = rc.formatNameParts(nameEl, given, family)
		return joinNonEmpty(" ", given, family, suffix)
	}
}

// formatNameParts applies <name-part> formatting to the given and
// family blocks.
func (rc *renderCtx) formatNameParts(nameEl *csl.Element, given, family string) (string, string) {
	for _, part := range nameEl.Children {
		if part.Kind != csl.KindNamePart {
			continue
		}
		switch part.Attr("name", "") {
		case "given":
			given = rc.finish(part, applyCaseOnly(part, given), "")
		case "family":
			family = rc.finish(part, applyCaseOnly(part, family), "")
		}
	}
	return given, family
}

func applyCaseOnly(el *csl.Element, text string) string {
	return applyCase(el.Attr("text-case", ""), text, "")
}

// etAlText resolves the truncation marker: an explicit <et-al> sibling
// of the name element or the localized et-al term.
func (rc *renderCtx) etAlText(nameEl, namesCtx *csl.Element) string {
	for _, child := range namesCtx.Children {
		if child.Kind != csl.KindEtAl {
			continue
		}
		if t, ok := rc.term(child.Attr("term", "et-al"), ""); ok {
			return rc.finish(child, t.Single, "")
		}
		return ""
	}
	if t, ok := rc.term("et-al", ""); ok {
		return t.Single
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// initialize reduces each given-name word to its capitalized first
// letter plus the mark; lowercase particle tokens are kept whole, and
// hyphenated compounds are initialized per component and rejoined.
func initialize(given, mark string, keepHyphens bool) string {
	var hyphenParts []string
	if keepHyphens {
		hyphenParts = strings.Split(given, "-")
	} else {
		hyphenParts = []string{strings.ReplaceAll(given, "-", " ")}
	}

	results := make([]string, 0, len(hyphenParts))
	for _, hyphenPart := range hyphenParts {
		words := strings.Fields(strings.ReplaceAll(hyphenPart, ".", " "))
		var b strings.Builder
		var group []string
		flush := func() {
			if len(group) > 0 {
				b.WriteString(strings.Join(group, mark))
				b.WriteString(mark)
				group = nil
			}
		}
		for _, word := range words {
			runes := []rune(word)
			if len(runes) > 0 && strings.ToUpper(string(runes[0])) == string(runes[0]) {
				group = append(group, string(runes[0]))
			} else {
				// particles are not initialized
				flush()
				b.WriteString(" " + word + " ")
			}
		}
		flush()
		results = append(results, strings.Join(strings.Fields(b.String()), " "))
	}
	return strings.Join(results, "-")
}
