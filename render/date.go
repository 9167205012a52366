package render

import (
	"strconv"
	"strings"

	"citeproc/bib"
	"citeproc/csl"
)

// renderDateElement renders a <date> element. When the element names a
// form that the locale chain defines, part selection comes from the
// locale's date layout while affixes, delimiter and per-part attribute
// overrides still come from the citation-style element.
func (rc *renderCtx) renderDateElement(el *csl.Element, it *bib.CitationItem) (string, error) {
	variable := el.Attr("variable", "")
	showParts := []string{"year", "month", "day"}

	if form := el.Attr("form", ""); form != "" {
		if layout, ok := rc.s.locales.DateFormat(form); ok {
			if dp := el.Attr("date-parts", ""); dp != "" {
				showParts = strings.Split(dp, "-")
			}
			return rc.renderDateValue(layout, el, it, variable, showParts)
		}
	}
	return rc.renderDateValue(el, nil, it, variable, showParts)
}

// renderDateValue fetches the date variable and renders it with the
// given part layout. styleEl is the citation-style element when layout
// comes from the locale, nil when the element renders inline.
func (rc *renderCtx) renderDateValue(layout, styleEl *csl.Element, it *bib.CitationItem, variable string, showParts []string) (string, error) {
	affixEl := layout
	if styleEl != nil {
		affixEl = styleEl
	}

	value, err := rc.reference(it).Date(variable)
	if err != nil {
		return "", err
	}

	var text string
	switch date := value.(type) {
	case bib.LiteralDate:
		text = rc.s.formatter.Preformat(date.Text)
	case bib.DateRange:
		text = rc.renderDateRange(layout, styleEl, date, showParts)
	case bib.Date:
		text = rc.renderSingleDate(layout, styleEl, date, showParts)
	}
	if text == "" {
		return "", nil
	}
	return rc.wrap(affixEl, text), nil
}

// renderSingleDate renders the requested parts of one date, joined with
// the style element's delimiter.
func (rc *renderCtx) renderSingleDate(layout, styleEl *csl.Element, date bib.Date, showParts []string) string {
	delimiterEl := layout
	if styleEl != nil {
		delimiterEl = styleEl
	}

	var parts []string
	for _, child := range layout.Children {
		if child.Kind != csl.KindDatePart {
			continue
		}
		name := child.Attr("name", "")
		if !containsString(showParts, name) {
			continue
		}
		if text := rc.renderDatePart(mergeDatePart(child, styleEl), date); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, delimiterEl.Attr("delimiter", ""))
}

// renderDateRange renders begin and end dates, factoring the shared
// trailing parts out: the differing segments are joined with an en-dash
// and the shared segment follows after the delimiter.
func (rc *renderCtx) renderDateRange(layout, styleEl *csl.Element, dateRange bib.DateRange, showParts []string) string {
	if dateRange.End.IsNil() {
		return rc.renderSingleDate(layout, styleEl, dateRange.Begin, showParts)
	}

	diffParts := append([]string(nil), showParts...)
	var sameParts []string
	move := func(part string) {
		diffParts = removeString(diffParts, part)
		sameParts = append(sameParts, part)
	}
	if dateRange.Begin.Year == dateRange.End.Year {
		move("year")
		if containsString(diffParts, "month") && dateRange.Begin.Month == dateRange.End.Month {
			move("month")
			if containsString(diffParts, "day") && dateRange.Begin.Day == dateRange.End.Day {
				move("day")
			}
		}
	}

	same := rc.renderSingleDate(layout, styleEl, dateRange.End, sameParts)
	diffBegin := rc.renderSingleDate(layout, styleEl, dateRange.Begin, diffParts)
	diffEnd := rc.renderSingleDate(layout, styleEl, dateRange.End, diffParts)
	if diffBegin == "" {
		return ""
	}

	text := strings.TrimRight(diffBegin, " ") + enDash + diffEnd
	if same != "" {
		delimiterEl := layout
		if styleEl != nil {
			delimiterEl = styleEl
		}
		text += delimiterEl.Attr("delimiter", "") + strings.TrimRight(same, " ")
	}
	return text
}

// mergeDatePart overlays the style element's date-part attributes of the
// same name over the locale layout's part.
func mergeDatePart(part, styleEl *csl.Element) *csl.Element {
	if styleEl == nil {
		return part
	}
	name := part.Attr("name", "")
	var override *csl.Element
	for _, child := range styleEl.Children {
		if child.Kind == csl.KindDatePart && child.Attr("name", "") == name {
			override = child
			break
		}
	}
	if override == nil {
		return part
	}
	merged := &csl.Element{Kind: csl.KindDatePart, Attrs: make(map[string]string, len(part.Attrs)+len(override.Attrs))}
	for k, v := range part.Attrs {
		merged.Attrs[k] = v
	}
	for k, v := range override.Attrs {
		merged.Attrs[k] = v
	}
	return merged
}

// renderDatePart renders one day/month/year part; parts the date does
// not carry produce nothing, so a year-only date never renders "00"
// placeholders.
func (rc *renderCtx) renderDatePart(el *csl.Element, date bib.Date) string {
	var text string
	switch el.Attr("name", "") {
	case "day":
		if date.Day == 0 {
			return ""
		}
		form := el.Attr("form", "numeric")
		if form == "ordinal" && strings.EqualFold(rc.s.locales.Option("limit-day-ordinals-to-day-1"), "true") && date.Day > 1 {
			form = "numeric"
		}
		switch form {
		case "numeric-leading-zeros":
			text = pad2(date.Day)
		case "ordinal":
			text = rc.ordinal(date.Day)
		default:
			text = strconv.Itoa(date.Day)
		}
	case "month":
		termBase := "month"
		index := date.Month
		if index == 0 {
			if date.Season == 0 {
				return ""
			}
			termBase = "season"
			index = date.Season
		}
		switch form := el.Attr("form", "long"); form {
		case "long", "short":
			termForm := ""
			if form == "short" {
				termForm = "short"
			}
			t, ok := rc.term(termBase+"-"+pad2(index), termForm)
			if !ok {
				return ""
			}
			text = t.Single
		case "numeric":
			if termBase != "month" {
				return ""
			}
			text = strconv.Itoa(index)
		case "numeric-leading-zeros":
			if termBase != "month" {
				return ""
			}
			text = pad2(index)
		}
	case "year":
		if date.Year == 0 {
			return ""
		}
		switch el.Attr("form", "long") {
		case "short":
			digits := strconv.Itoa(date.Year)
			if len(digits) > 2 {
				digits = digits[len(digits)-2:]
			}
			text = digits
		default:
			text = strconv.Itoa(abs(date.Year))
			if date.Year < 0 {
				if t, ok := rc.term("bc", ""); ok {
					text += t.Single
				}
			} else if date.Year < 1000 {
				if t, ok := rc.term("ad", ""); ok {
					text += t.Single
				}
			}
		}
	}
	if text == "" {
		return ""
	}
	return rc.finish(el, text, "")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
