package render

import (
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap/zaptest"

	"citeproc/bib"
	"citeproc/csl"
	"citeproc/format"
)

func parseTestStyle(t *testing.T, text string) *csl.Style {
	t.Helper()

	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		t.Fatalf("ReadFromString() error = %v", err)
	}
	style, err := csl.ParseStyle(doc, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("ParseStyle() error = %v", err)
	}
	return style
}

func newTestSession(t *testing.T, styleText string, refs ...*bib.Reference) *Session {
	t.Helper()

	style := parseTestStyle(t, styleText)
	log := zaptest.NewLogger(t)
	chain, err := csl.BuildChain(style, "en-US", "", log)
	if err != nil {
		t.Fatalf("BuildChain() error = %v", err)
	}
	source := make(bib.Source)
	for _, ref := range refs {
		source.Add(ref)
	}
	return NewSession(style, chain, source, format.Plain{}, log)
}

// citeKeys renders one citation over the given keys without registering
// it first, so tests that do not care about bibliography numbering can
// stay short.
func citeKeys(t *testing.T, s *Session, keys ...string) string {
	t.Helper()

	items := make([]*bib.CitationItem, len(keys))
	for i, key := range keys {
		items[i] = bib.NewCitationItem(key)
	}
	text, err := s.Cite(bib.NewCitation(items...), nil)
	if err != nil {
		t.Fatalf("Cite() error = %v", err)
	}
	return text
}

func citationLayout(body string) string {
	return `<style class="in-text" version="1.0"><citation><layout>` + body + `</layout></citation></style>`
}

func TestRenderTextVariable(t *testing.T) {
	ref := bib.NewReference("doe2006", "book")
	ref.SetText("title", "The Art of Computer Programming")

	s := newTestSession(t, citationLayout(`<text variable="title"/>`), ref)
	if got := citeKeys(t, s, "doe2006"); got != "The Art of Computer Programming" {
		t.Errorf("Cite() = %q", got)
	}
}

func TestRenderTextValueAndTerm(t *testing.T) {
	ref := bib.NewReference("doe2006", "book")

	t.Run("value", func(t *testing.T) {
		s := newTestSession(t, citationLayout(`<text value="anonymous"/>`), ref)
		if got := citeKeys(t, s, "doe2006"); got != "anonymous" {
			t.Errorf("Cite() = %q", got)
		}
	})

	t.Run("term with case", func(t *testing.T) {
		s := newTestSession(t, citationLayout(`<text term="and" text-case="capitalize-first"/>`), ref)
		if got := citeKeys(t, s, "doe2006"); got != "And" {
			t.Errorf("Cite() = %q", got)
		}
	})

	t.Run("term short form", func(t *testing.T) {
		s := newTestSession(t, citationLayout(`<text term="edition" form="short"/>`), ref)
		if got := citeKeys(t, s, "doe2006"); got != "ed." {
			t.Errorf("Cite() = %q", got)
		}
	})

	t.Run("unknown term renders nothing", func(t *testing.T) {
		s := newTestSession(t, citationLayout(`<text term="no-such-term"/>`), ref)
		if got := citeKeys(t, s, "doe2006"); got != "" {
			t.Errorf("Cite() = %q, want empty", got)
		}
	})
}

func TestRenderTextQuotes(t *testing.T) {
	ref := bib.NewReference("doe2006", "article-journal")
	ref.SetText("title", "On Citation")

	s := newTestSession(t, citationLayout(`<text variable="title" quotes="true"/>`), ref)
	if got, want := citeKeys(t, s, "doe2006"), "“On Citation”"; got != want {
		t.Errorf("Cite() = %q, want %q", got, want)
	}
}

func TestRenderTextShortVariable(t *testing.T) {
	ref := bib.NewReference("doe2006", "book")
	ref.SetText("title", "A Very Long Book Title")
	ref.SetText("title-short", "Short Title")

	s := newTestSession(t, citationLayout(`<text variable="title" form="short"/>`), ref)
	if got := citeKeys(t, s, "doe2006"); got != "Short Title" {
		t.Errorf("Cite() = %q", got)
	}
}

func TestRenderMacro(t *testing.T) {
	ref := bib.NewReference("doe2006", "book")
	ref.SetText("volume", "3")

	style := `<style class="in-text" version="1.0">
		<macro name="vol"><text variable="volume" prefix="vol. "/></macro>
		<citation><layout><text macro="vol"/></layout></citation>
	</style>`
	s := newTestSession(t, style, ref)
	if got := citeKeys(t, s, "doe2006"); got != "vol. 3" {
		t.Errorf("Cite() = %q", got)
	}
}

func TestRenderGroup(t *testing.T) {
	layout := `<group prefix="[" suffix="]" delimiter=" "><text value="Vol."/><text variable="volume"/></group>`

	t.Run("renders with variable", func(t *testing.T) {
		ref := bib.NewReference("doe2006", "book")
		ref.SetText("volume", "3")
		s := newTestSession(t, citationLayout(layout), ref)
		if got := citeKeys(t, s, "doe2006"); got != "[Vol. 3]" {
			t.Errorf("Cite() = %q", got)
		}
	})

	t.Run("suppressed when variable missing", func(t *testing.T) {
		ref := bib.NewReference("doe2006", "book")
		s := newTestSession(t, citationLayout(layout), ref)
		if got := citeKeys(t, s, "doe2006"); got != "" {
			t.Errorf("Cite() = %q, want empty", got)
		}
	})

	t.Run("nested group suppression propagates", func(t *testing.T) {
		ref := bib.NewReference("doe2006", "book")
		ref.SetText("title", "A Title")
		nested := `<group delimiter=", "><text variable="title"/><group delimiter=" "><text value="no."/><text variable="issue"/></group></group>`
		s := newTestSession(t, citationLayout(nested), ref)
		if got := citeKeys(t, s, "doe2006"); got != "A Title" {
			t.Errorf("Cite() = %q", got)
		}
	})
}

func TestRenderChoose(t *testing.T) {
	layout := `<choose>
		<if type="book"><text value="BOOK"/></if>
		<else-if variable="edition"><text value="EDITION"/></else-if>
		<else><text value="OTHER"/></else>
	</choose>`

	tests := []struct {
		name string
		ref  func() *bib.Reference
		want string
	}{
		{"type matches", func() *bib.Reference {
			return bib.NewReference("k", "book")
		}, "BOOK"},
		{"variable matches", func() *bib.Reference {
			ref := bib.NewReference("k", "article-journal")
			ref.SetText("edition", "2")
			return ref
		}, "EDITION"},
		{"else branch", func() *bib.Reference {
			return bib.NewReference("k", "article-journal")
		}, "OTHER"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t, citationLayout(layout), tc.ref())
			if got := citeKeys(t, s, "k"); got != tc.want {
				t.Errorf("Cite() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderChooseIsNumeric(t *testing.T) {
	layout := `<choose>
		<if is-numeric="volume"><text value="numeric"/></if>
		<else><text value="textual"/></else>
	</choose>`

	tests := []struct {
		name   string
		volume string
		want   string
	}{
		{"plain number", "12", "numeric"},
		{"number with affix", "12th", "numeric"},
		{"letter prefix", "A12", "numeric"},
		{"roman", "iv", "textual"},
		{"prose", "special issue", "textual"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ref := bib.NewReference("k", "book")
			ref.SetText("volume", tc.volume)
			s := newTestSession(t, citationLayout(layout), ref)
			if got := citeKeys(t, s, "k"); got != tc.want {
				t.Errorf("Cite() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderChooseMatchModes(t *testing.T) {
	ref := bib.NewReference("k", "book")
	ref.SetText("volume", "3")

	t.Run("any", func(t *testing.T) {
		layout := `<choose><if match="any" variable="issue volume"><text value="yes"/></if></choose>`
		s := newTestSession(t, citationLayout(layout), ref)
		if got := citeKeys(t, s, "k"); got != "yes" {
			t.Errorf("Cite() = %q", got)
		}
	})

	t.Run("none", func(t *testing.T) {
		layout := `<choose><if match="none" variable="issue"><text value="yes"/></if></choose>`
		s := newTestSession(t, citationLayout(layout), ref)
		if got := citeKeys(t, s, "k"); got != "yes" {
			t.Errorf("Cite() = %q", got)
		}
	})

	t.Run("all fails on partial match", func(t *testing.T) {
		layout := `<choose><if variable="issue volume"><text value="yes"/></if><else><text value="no"/></else></choose>`
		s := newTestSession(t, citationLayout(layout), ref)
		if got := citeKeys(t, s, "k"); got != "no" {
			t.Errorf("Cite() = %q", got)
		}
	})
}

func TestRenderChooseLocatorCondition(t *testing.T) {
	ref := bib.NewReference("k", "book")
	layout := `<choose>
		<if locator="chapter"><text value="chapter locator"/></if>
		<else-if variable="locator"><text value="other locator"/></else-if>
		<else><text value="none"/></else>
	</choose>`
	s := newTestSession(t, citationLayout(layout), ref)

	cite := func(item *bib.CitationItem) string {
		t.Helper()
		text, err := s.Cite(bib.NewCitation(item), nil)
		if err != nil {
			t.Fatalf("Cite() error = %v", err)
		}
		return text
	}

	if got := cite(bib.NewCitationItem("k").WithLocator("chapter", "3")); got != "chapter locator" {
		t.Errorf("Cite() = %q", got)
	}
	if got := cite(bib.NewCitationItem("k").WithLocator("page", "3")); got != "other locator" {
		t.Errorf("Cite() = %q", got)
	}
	if got := cite(bib.NewCitationItem("k")); got != "none" {
		t.Errorf("Cite() = %q", got)
	}
}

func TestRenderLayoutAffixes(t *testing.T) {
	ref := bib.NewReference("doe2006", "book")
	ref.SetText("title", "A Title")

	style := `<style class="in-text" version="1.0"><citation><layout prefix="(" suffix=")"><text variable="title"/></layout></citation></style>`
	s := newTestSession(t, style, ref)
	if got := citeKeys(t, s, "doe2006"); got != "(A Title)" {
		t.Errorf("Cite() = %q", got)
	}
}

func TestRenderStripPeriods(t *testing.T) {
	ref := bib.NewReference("doe2006", "book")
	ref.SetText("container-title-short", "J. Exp. Biol.")

	s := newTestSession(t, citationLayout(`<text variable="container-title-short" strip-periods="true"/>`), ref)
	if got := citeKeys(t, s, "doe2006"); got != "J Exp Biol" {
		t.Errorf("Cite() = %q", got)
	}
}
