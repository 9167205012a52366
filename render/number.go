package render

import (
	"regexp"
	"strconv"
	"strings"

	"citeproc/bib"
	"citeproc/csl"
)

// renderNumber resolves a <number> element. The synthetic locator
// variable is sourced from the citation item, not the reference.
func (rc *renderCtx) renderNumber(el *csl.Element, it *bib.CitationItem) (string, error) {
	variable := el.Attr("variable", "")
	var value string
	switch variable {
	case "locator":
		if it.Locator == nil {
			return "", nil
		}
		variable = it.Locator.Label
		value = it.Locator.Identifier
	case "page-first":
		v, err := rc.reference(it).Text("page")
		if err != nil {
			return "", err
		}
		value = v
	default:
		v, err := rc.reference(it).Text(variable)
		if err != nil {
			return "", err
		}
		value = v
	}

	text := rc.formatRanges(el, value, variable, func(number string) string {
		return rc.formatNumber(el, number)
	})
	return rc.wrap(el, rc.fontFormat(el, applyCase(el.Attr("text-case", ""), rc.stripPeriods(el, text), ""))), nil
}

// formatRanges handles composite numeric values: comma-separated lists,
// ampersand-joined items and ranges written with a hyphen or en-dash.
// Ranges join their endpoints with the locale page-range-delimiter for
// page variables, an en-dash otherwise. format is applied to every
// single number; nil means identity.
func (rc *renderCtx) formatRanges(el *csl.Element, value, variable string, formatNum func(string) string) string {
	if formatNum == nil {
		formatNum = func(s string) string { return s }
	}

	rangeDelimiter := enDash
	if strings.HasPrefix(variable, "page") {
		if t, ok := rc.term("page-range-delimiter", ""); ok && t.Single != "" {
			rangeDelimiter = t.Single
		}
	}

	formatOne := func(item string) string {
		first, last, isRange := splitRange(item)
		if !isRange {
			return formatNum(strings.TrimSpace(item))
		}
		first = formatNum(first)
		if variable == "page-first" {
			return first
		}
		if variable == "page" {
			last = rc.abbreviateLastPage(first, last)
		}
		return first + rangeDelimiter + formatNum(last)
	}

	commaParts := strings.Split(value, ",")
	for i, commaPart := range commaParts {
		ampParts := strings.Split(commaPart, "&")
		for j, item := range ampParts {
			ampParts[j] = formatOne(strings.TrimSpace(item))
		}
		commaParts[i] = strings.Join(ampParts, " "+rc.s.formatter.Preformat("&")+" ")
	}
	return strings.Join(commaParts, ", ")
}

// splitRange recognizes "first-last" with a hyphen or en-dash; values
// with more or fewer separators are not ranges.
func splitRange(item string) (first, last string, ok bool) {
	parts := strings.Split(strings.ReplaceAll(item, enDash, "-"), "-")
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

var leadingNumber = regexp.MustCompile(`\d+`)

// abbreviateLastPage applies the style's page-range-format policy to the
// second endpoint of a page range.
func (rc *renderCtx) abbreviateLastPage(first, last string) string {
	common := 0
	for common < len(first) && common < len(last) && first[common] == last[common] {
		common++
	}

	rangeFormat := rc.s.style.Option("page-range-format")
	if rangeFormat == "chicago" {
		rangeFormat = chicagoRangeFormat(first, common)
	}
	switch rangeFormat {
	case "minimal":
		if common < len(last) {
			return last[common:]
		}
		return last
	case "minimal-two":
		index := common
		if index > len(first)-2 {
			index = len(first) - 2
		}
		if index < 0 {
			index = 0
		}
		if index < len(last) {
			return last[index:]
		}
		return last
	default: // expanded or unset
		return last
	}
}

// chicagoRangeFormat resolves the Chicago Manual heuristic to one of the
// simple policies based on the first endpoint.
func chicagoRangeFormat(first string, common int) string {
	m := leadingNumber.FindString(first)
	if m == "" {
		return "expanded"
	}
	firstNumber, _ := strconv.Atoi(m)
	switch {
	case firstNumber < 100 || firstNumber%100 == 0:
		return "expanded"
	case len(first) >= 4 && common < 2:
		return "expanded"
	case firstNumber%100 < 10:
		return "minimal"
	default:
		return "minimal-two"
	}
}

// formatNumber renders one number in the element's form: numeric,
// ordinal, long-ordinal or roman. Values that are not plain integers
// pass through unchanged.
func (rc *renderCtx) formatNumber(el *csl.Element, value string) string {
	number, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	form := el.Attr("form", "numeric")
	switch {
	case form == "numeric":
		return strconv.Itoa(number)
	case form == "ordinal" || (form == "long-ordinal" && number > 10):
		return rc.ordinal(number)
	case form == "long-ordinal":
		if t, ok := rc.term("long-ordinal-"+pad2(number), ""); ok {
			return t.Single
		}
		return rc.ordinal(number)
	case form == "roman":
		return strings.ToLower(romanize(number))
	}
	return strconv.Itoa(number)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ordinal appends the locale ordinal suffix keyed by the last digit,
// with the teens exception mapping to the generic suffix.
func (rc *renderCtx) ordinal(number int) string {
	digits := strconv.Itoa(number)
	lastDigit := int(digits[len(digits)-1] - '0')
	termName := "ordinal-04"
	if lastDigit >= 1 && lastDigit <= 3 && !(len(digits) > 1 && digits[len(digits)-2] == '1') {
		termName = "ordinal-0" + strconv.Itoa(lastDigit)
	}
	if t, ok := rc.term(termName, ""); ok {
		return digits + t.Single
	}
	return digits
}

var romanNumerals = []struct {
	letter string
	value  int
}{
	{"M", 1000}, {"CM", 900}, {"D", 500}, {"CD", 400},
	{"C", 100}, {"XC", 90}, {"L", 50}, {"XL", 40},
	{"X", 10}, {"IX", 9}, {"V", 5}, {"IV", 4}, {"I", 1},
}

// romanize converts n to roman numerals using the standard subtractive
// notation.
func romanize(n int) string {
	var b strings.Builder
	for _, numeral := range romanNumerals {
		for n >= numeral.value {
			b.WriteString(numeral.letter)
			n -= numeral.value
		}
	}
	return b.String()
}
