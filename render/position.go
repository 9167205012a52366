package render

import (
	"strconv"
	"strings"

	"citeproc/bib"
)

// evalPositions evaluates citation-position tests against the session's
// prior-citation history. Inside a bibliography every position test is
// false.
func (rc *renderCtx) evalPositions(spec string, it *bib.CitationItem) []bool {
	positions := strings.Fields(spec)
	if rc.bibliography {
		return make([]bool, len(positions))
	}

	history := rc.s.history
	var lastCite *bib.CitationItem
	if len(history) > 0 {
		lastCite = history[len(history)-1]
	}
	alreadyCited := false
	for _, cite := range history {
		if cite.Key == it.Key {
			alreadyCited = true
			break
		}
	}
	// ibid applies when the previous cite addressed the same work, either
	// within the same citation or as the only item of the preceding one
	possiblyIbid := alreadyCited && lastCite != nil && lastCite.Key == it.Key &&
		(it.Citation() == lastCite.Citation() || len(lastCite.Citation().Items) == 1)

	results := make([]bool, 0, len(positions))
	for _, position := range positions {
		result := false
		switch position {
		case "first":
			result = !alreadyCited
		case "subsequent":
			result = alreadyCited
		case "ibid":
			if possiblyIbid {
				result = it.HasLocator() || !lastCite.HasLocator()
			}
		case "ibid-with-locator":
			if possiblyIbid {
				result = (it.HasLocator() && !lastCite.HasLocator()) ||
					(it.HasLocator() && lastCite.HasLocator() && !it.Locator.Equal(lastCite.Locator))
			}
		case "near-note":
			if alreadyCited {
				result = rc.nearNote(it)
			}
		}
		results = append(results, result)
	}
	return results
}

// nearNote walks the citation history backwards counting distinct
// citations until the style's near-note-distance is exhausted.
func (rc *renderCtx) nearNote(it *bib.CitationItem) bool {
	maxDistance, err := strconv.Atoi(rc.s.style.CitationOption("near-note-distance"))
	if err != nil {
		maxDistance = 5
	}
	citations := 1
	var lastCitation *bib.Citation
	history := rc.s.history
	for i := len(history) - 1; i >= 0; i-- {
		cite := history[i]
		if cite.Key == it.Key && citations <= maxDistance {
			return true
		}
		if cite.Citation() != lastCitation {
			citations++
			lastCitation = cite.Citation()
		}
	}
	return false
}
