package render

import (
	"regexp"
	"strconv"
	"strings"

	"citeproc/bib"
	"citeproc/csl"
)

var multipleNumbers = regexp.MustCompile(`\d+[^\d]+\d+`)

// renderLabel renders a localized unit label ("p.", "pp.", "eds.").
// variable and plural may be forced by an enclosing <names> element;
// otherwise the variable attribute and the adjacent value's plurality
// decide. A term the locale chain does not define renders nothing.
func (rc *renderCtx) renderLabel(el *csl.Element, it *bib.CitationItem, variable string, plural *bool) (string, error) {
	if variable == "" {
		variable = el.Attr("variable", "")
	}
	form := el.Attr("form", "long")
	pluralOption := el.Attr("plural", "contextual")

	isPlural := rc.labelPlural(el, it)
	if plural != nil {
		isPlural = *plural
	}

	if variable == "locator" {
		if !it.HasLocator() {
			return "", nil
		}
		variable = it.Locator.Label
	}

	term, ok := rc.term(variable, form)
	if !ok {
		return "", nil
	}

	text := term.Single
	if pluralOption == "always" || (pluralOption == "contextual" && isPlural) {
		text = term.Multiple
	}
	return rc.finish(el, text, ""), nil
}

// labelPlural decides contextual pluralization: number-of-* variables
// count, anything else is plural when the value contains two numbers
// (a range or a comma list).
func (rc *renderCtx) labelPlural(el *csl.Element, it *bib.CitationItem) bool {
	variable := el.Attr("variable", "")

	var value string
	if variable == "locator" {
		if !it.HasLocator() {
			return false
		}
		value = it.Locator.Identifier
	} else {
		v, err := rc.reference(it).Text(variable)
		if err != nil {
			return false
		}
		value = v
	}

	if strings.HasPrefix(variable, "number-of") {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n > 1
		}
	}
	return multipleNumbers.MatchString(value)
}
