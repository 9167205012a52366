package render

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"citeproc/bib"
	"citeproc/csl"
)

// render dispatches one rendering element. The empty string means the
// element produced no output; bib.ErrMissingVariable propagates the
// implicit-conditional failure to the nearest group/choose boundary.
func (rc *renderCtx) render(el *csl.Element, it *bib.CitationItem) (string, error) {
	switch el.Kind {
	case csl.KindText:
		return rc.renderText(el, it)
	case csl.KindNumber:
		return rc.renderNumber(el, it)
	case csl.KindDate:
		return rc.renderDateElement(el, it)
	case csl.KindNames:
		return rc.renderNames(el, it, el)
	case csl.KindLabel:
		return rc.renderLabel(el, it, "", nil)
	case csl.KindGroup:
		return rc.renderGroup(el, it)
	case csl.KindChoose:
		return rc.renderChoose(el, it)
	default:
		// name, name-part, et-al, date-part, substitute and sort keys are
		// rendered by their owning elements, never via dispatch
		rc.s.log.Warn("Element not renderable in this position, ignoring", zap.String("kind", el.Kind.String()))
		return "", nil
	}
}

// renderChildren renders all children in order, joining the results;
// children whose variables are missing are silently skipped.
func (rc *renderCtx) renderChildren(el *csl.Element, it *bib.CitationItem) (string, error) {
	var out []string
	for _, child := range el.Children {
		text, err := rc.render(child, it)
		if err != nil {
			if errors.Is(err, bib.ErrMissingVariable) {
				continue
			}
			return "", err
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, ""), nil
}

// generated variables do not count as variable calls for the implicit
// conditional of groups.
func isGeneratedVariable(name string) bool {
	return name == "year-suffix" || name == "citation-number"
}

// callsVariable reports whether rendering the element consults a
// reference variable; groups use this to decide suppression.
func (rc *renderCtx) callsVariable(el *csl.Element) bool {
	switch el.Kind {
	case csl.KindText:
		if v, ok := el.Attrs["variable"]; ok {
			return !isGeneratedVariable(v)
		}
		if m, ok := el.Attrs["macro"]; ok {
			if macro, found := rc.s.style.Macro(m); found {
				return rc.callsVariable(macro)
			}
		}
		return false
	case csl.KindNumber, csl.KindDate, csl.KindNames, csl.KindGroup:
		return true
	case csl.KindLabel:
		return el.Attr("variable", "") == "locator"
	default:
		for _, child := range el.Children {
			if rc.callsVariable(child) {
				return true
			}
		}
		return false
	}
}

// renderText resolves a <text> element: variable, macro, term or literal
// value, then case, periods, quoting, affixes and font formatting.
func (rc *renderCtx) renderText(el *csl.Element, it *bib.CitationItem) (string, error) {
	ref := rc.reference(it)
	lang := ref.Language()
	if lang == "" {
		lang = rc.s.style.DefaultLocale
		if len(lang) > 2 {
			lang = lang[:2]
		}
		if lang == "" {
			lang = "en"
		}
	}

	var (
		text string
		err  error
	)
	switch {
	case el.HasAttr("variable"):
		text, err = rc.textVariable(el, it)
		if err != nil {
			return "", err
		}
	case el.HasAttr("macro"):
		name := el.Attr("macro", "")
		macro, ok := rc.s.style.Macro(name)
		if !ok {
			rc.s.log.Warn("Reference to undefined macro, ignoring", zap.String("macro", name))
			return "", nil
		}
		text, err = rc.renderChildren(macro, it)
		if err != nil {
			return "", err
		}
	case el.HasAttr("term"):
		term, ok := rc.term(el.Attr("term", ""), el.Attr("form", "long"))
		if !ok {
			return "", nil
		}
		if el.BoolAttr("plural", false) {
			text = term.Multiple
		} else {
			text = term.Single
		}
	case el.HasAttr("value"):
		text = rc.s.formatter.Preformat(el.Attr("value", ""))
	}

	if text == "" {
		return "", nil
	}
	text = rc.fontFormat(el, applyCase(el.Attr("text-case", ""), rc.stripPeriods(el, text), lang))
	return rc.wrap(el, rc.quote(el, text)), nil
}

func (rc *renderCtx) textVariable(el *csl.Element, it *bib.CitationItem) (string, error) {
	variable := el.Attr("variable", "")
	if rc.isRepressed(csl.KindText, variable) {
		return "", nil
	}
	ref := rc.reference(it)

	if el.Attr("form", "") == "short" {
		if short := variable + "-short"; ref.Has(short) {
			variable = short
		}
	}

	switch {
	case strings.HasPrefix(variable, "page"):
		value, err := ref.Text("page")
		if err != nil {
			return "", err
		}
		return rc.formatRanges(el, value, variable, nil), nil
	case variable == "citation-number":
		return rc.s.citationNumber(it.Key), nil
	case variable == "locator":
		if it.Locator == nil {
			return "", bib.ErrMissingVariable
		}
		id := rc.s.formatter.Preformat(it.Locator.Identifier)
		return strings.ReplaceAll(id, "-", enDash), nil
	default:
		value, err := ref.Text(variable)
		if err != nil {
			if ref.Has(variable) {
				// a non-text class addressed through <text>; render its
				// string rendition
				v, _ := ref.Value(variable)
				return rc.s.formatter.Preformat(v), nil
			}
			return "", err
		}
		return rc.s.formatter.Preformat(value), nil
	}
}

// renderGroup renders all children joined by the group delimiter,
// implementing the implicit conditional: a group whose variable-calling
// descendants all came up empty renders nothing at all.
func (rc *renderCtx) renderGroup(el *csl.Element, it *bib.CitationItem) (string, error) {
	var out []string
	variableCalled := false
	variableRendered := false
	for _, child := range el.Children {
		calls := rc.callsVariable(child)
		variableCalled = variableCalled || calls
		text, err := rc.render(child, it)
		if err != nil {
			if errors.Is(err, bib.ErrMissingVariable) {
				continue
			}
			return "", err
		}
		if text != "" {
			out = append(out, text)
			variableRendered = variableRendered || calls
		}
	}
	if len(out) == 0 || (variableCalled && !variableRendered) {
		return "", bib.ErrMissingVariable
	}
	text := strings.Join(out, el.Attr("delimiter", ""))
	return rc.wrap(el, rc.fontFormat(el, text)), nil
}

// renderChoose renders the first branch whose condition holds.
func (rc *renderCtx) renderChoose(el *csl.Element, it *bib.CitationItem) (string, error) {
	for _, child := range el.Children {
		text, err := rc.renderBranch(child, it)
		if err != nil {
			if errors.Is(err, errConditionFailed) {
				continue
			}
			return "", err
		}
		return text, nil
	}
	return "", nil
}

func (rc *renderCtx) renderBranch(el *csl.Element, it *bib.CitationItem) (string, error) {
	if el.Kind == csl.KindElse {
		return rc.renderChildren(el, it)
	}
	if !rc.evalCondition(el, it) {
		return "", errConditionFailed
	}
	return rc.renderChildren(el, it)
}

var numericValue = regexp.MustCompile(`(?i)^[A-Z]*\d+[A-Z]*$`)

// evalCondition evaluates the boolean tests of an <if>/<else-if>: every
// attribute value contributes one result, combined by match=all|any|none.
func (rc *renderCtx) evalCondition(el *csl.Element, it *bib.CitationItem) bool {
	ref := rc.reference(it)
	var results []bool

	if v, ok := el.Attrs["type"]; ok {
		for _, typ := range strings.Fields(v) {
			results = append(results, strings.EqualFold(typ, ref.Type))
		}
	}
	if v, ok := el.Attrs["variable"]; ok {
		for _, name := range strings.Fields(v) {
			if name == "locator" {
				results = append(results, it.HasLocator())
			} else {
				results = append(results, ref.Has(name))
			}
		}
	}
	if v, ok := el.Attrs["is-numeric"]; ok {
		for _, name := range strings.Fields(v) {
			value, err := ref.Text(name)
			results = append(results, err == nil && numericValue.MatchString(value))
		}
	}
	if v, ok := el.Attrs["is-uncertain-date"]; ok {
		for _, name := range strings.Fields(v) {
			date, err := ref.Date(name)
			results = append(results, err == nil && date.IsUncertain())
		}
	}
	if v, ok := el.Attrs["locator"]; ok {
		for _, name := range strings.Fields(v) {
			label := strings.ReplaceAll(name, "-", " ")
			results = append(results, it.HasLocator() && label == it.Locator.Label)
		}
	}
	if v, ok := el.Attrs["position"]; ok {
		results = append(results, rc.evalPositions(v, it)...)
	}

	switch el.Attr("match", "all") {
	case "any":
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case "none":
		for _, r := range results {
			if r {
				return false
			}
		}
		return true
	default:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	}
}
