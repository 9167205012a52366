package render

import (
	"strings"
	"unicode"
)

// Stop words kept lowercase by title case unless they open a sentence.
var titleStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "down": true, "for": true, "from": true, "in": true,
	"into": true, "nor": true, "of": true, "on": true, "onto": true,
	"or": true, "over": true, "so": true, "the": true, "till": true,
	"to": true, "up": true, "via": true, "with": true, "yet": true,
}

// applyCase implements the CSL text-case transforms. Title case only
// applies to English text; other languages degrade to sentence case.
func applyCase(textCase, text, lang string) string {
	if textCase == "" || text == "" {
		return text
	}
	if textCase == "title" && lang != "" && lang != "en" {
		textCase = "sentence"
	}
	switch textCase {
	case "lowercase":
		return strings.ToLower(text)
	case "uppercase":
		return strings.ToUpper(text)
	case "capitalize-first":
		return capitalizeFirst(text)
	case "capitalize-all":
		words := strings.Fields(text)
		for i, w := range words {
			words[i] = capitalizeFirst(w)
		}
		return strings.Join(words, " ")
	case "title":
		return titleCase(text)
	case "sentence":
		return sentenceCase(text)
	}
	return text
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isLowerWord(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isUpperWord(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// titleCase capitalizes every lowercase word except stop words, which
// stay lowered unless they follow a colon or period (or open the text).
func titleCase(text string) string {
	words := strings.Fields(text)
	prev := ":" // forces capitalization of the first word
	for i, word := range words {
		if isLowerWord(word) && (!titleStopWords[word] || prev == ":" || prev == ".") {
			words[i] = capitalizeFirst(word)
		}
		if len(words[i]) > 0 {
			prev = words[i][len(words[i])-1:]
		}
	}
	return strings.Join(words, " ")
}

// sentenceCase lowers mixed-case words (leaving all-caps text alone) and
// capitalizes the first word.
func sentenceCase(text string) string {
	allUpper := isUpperWord(strings.ReplaceAll(text, " ", ""))
	words := strings.Fields(text)
	for i, word := range words {
		if !allUpper && !isUpperWord(word) {
			word = strings.ToLower(word)
		}
		if i == 0 {
			word = capitalizeFirst(word)
		}
		words[i] = word
	}
	return strings.Join(words, " ")
}
