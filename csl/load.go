package csl

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"citeproc/archive"
)

//go:embed locales/*.xml
var localeData embed.FS

// primaryDialects maps a base language to its primary regional dialect,
// used as the locale-file fallback when the requested dialect has no
// locale of its own.
var primaryDialects = map[string]string{
	"af": "af-ZA", "ar": "ar", "bg": "bg-BG", "ca": "ca-AD", "cs": "cs-CZ",
	"da": "da-DK", "de": "de-DE", "el": "el-GR", "en": "en-US", "es": "es-ES",
	"et": "et-EE", "fa": "fa-IR", "fi": "fi-FI", "fr": "fr-FR", "he": "he-IL",
	"hu": "hu-HU", "is": "is-IS", "it": "it-IT", "ja": "ja-JP", "ko": "ko-KR",
	"lt": "lt-LT", "lv": "lv-LV", "nb": "nb-NO", "nl": "nl-NL", "nn": "nn-NO",
	"pl": "pl-PL", "pt": "pt-PT", "ro": "ro-RO", "ru": "ru-RU", "sk": "sk-SK",
	"sl": "sl-SI", "sv": "sv-SE", "tr": "tr-TR", "uk": "uk-UA", "vi": "vi-VN",
	"zh": "zh-CN",
}

// defaultLocale is the ultimate fallback at the end of every chain.
const defaultLocale = "en-US"

func readDocument(path string) (*etree.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		ValidateInput: false,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// LoadStyleFile reads and parses a CSL style document from disk.
func LoadStyleFile(path string, log *zap.Logger) (*Style, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	style, err := ParseStyle(doc, log)
	if err != nil {
		return nil, fmt.Errorf("style %s: %w", path, err)
	}
	return style, nil
}

// LoadLocale loads the locale definition for lang: from localeDir when
// provided (files named locales-<lang>.xml, the upstream repository
// layout; a .zip path is read as a locales bundle), falling back to the
// locales embedded in the binary.
func LoadLocale(lang, localeDir string, log *zap.Logger) (*Locale, error) {
	name := fmt.Sprintf("locales-%s.xml", lang)

	if localeDir != "" && strings.EqualFold(filepath.Ext(localeDir), ".zip") {
		data, err := archive.ReadFile(localeDir, name)
		if err == nil {
			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(data); err != nil {
				return nil, fmt.Errorf("bundled locale %s: %w", lang, err)
			}
			return parseLocaleDocument(doc, lang, log)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if localeDir != "" {
		path := filepath.Join(localeDir, name)
		if doc, err := readDocument(path); err == nil {
			return parseLocaleDocument(doc, lang, log)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	data, err := localeData.ReadFile("locales/" + name)
	if err != nil {
		return nil, fmt.Errorf("%q is not a known locale", lang)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("embedded locale %s: %w", lang, err)
	}
	return parseLocaleDocument(doc, lang, log)
}

func parseLocaleDocument(doc *etree.Document, lang string, log *zap.Logger) (*Locale, error) {
	root := doc.Root()
	if root == nil || root.Tag != "locale" {
		return nil, fmt.Errorf("locale %s: unexpected document structure", lang)
	}
	loc := ParseLocale(root, log)
	if loc.Lang == "" {
		loc.Lang = lang
	}
	return loc, nil
}

// BuildChain assembles the locale fallback chain for rendering style in
// the requested output locale (empty means the style default, then
// en-US). The order follows the CSL locale fallback rules: in-style
// blocks from most to least specific, then external locale files for
// the dialect, the primary dialect of the base language and finally
// en-US. A dialect without a locale file is skipped with a warning.
func BuildChain(style *Style, lang, localeDir string, log *zap.Logger) (*Chain, error) {
	if lang == "" {
		lang = style.DefaultLocale
	}
	if lang == "" {
		lang = defaultLocale
	}

	base := lang
	if tag, err := language.Parse(lang); err == nil {
		b, _ := tag.Base()
		base = b.String()
	} else {
		log.Warn("Unparsable locale tag", zap.String("locale", lang), zap.Error(err))
	}

	var locales []*Locale
	addInStyle := func(match string) {
		for _, loc := range style.Locales {
			if loc.Lang == match {
				locales = append(locales, loc)
				return
			}
		}
	}
	loaded := make(map[string]bool)
	addSystem := func(dialect string) {
		if dialect == "" || loaded[dialect] {
			return
		}
		loaded[dialect] = true
		loc, err := LoadLocale(dialect, localeDir, log)
		if err != nil {
			log.Warn("Locale unavailable, skipping", zap.String("locale", dialect), zap.Error(err))
			return
		}
		locales = append(locales, loc)
	}

	addInStyle(lang)
	if base != lang {
		addInStyle(base)
	}
	addInStyle("")
	addSystem(lang)
	addSystem(primaryDialects[base])
	addSystem(defaultLocale)

	chain := NewChain(locales...)
	if chain.Levels() == 0 {
		return nil, fmt.Errorf("no locale data available for %q", lang)
	}
	return chain, nil
}
