package csljson

import (
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"citeproc/bib"
)

func TestParse(t *testing.T) {
	const data = `[
		{
			"id": "doe2006",
			"type": "book",
			"title": "A Title",
			"volume": 3,
			"author": [
				{"given": "John", "family": "Doe"},
				{"given": "Ludwig", "family": "Beethoven", "non-dropping-particle": "van"},
				{"literal": "ACME Corporation"}
			],
			"issued": {"date-parts": [[2006, 5, 3]]}
		}
	]`

	source, err := Parse(strings.NewReader(data), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ref, ok := source.Lookup("doe2006")
	if !ok {
		t.Fatal("record not found")
	}

	if ref.Type != "book" {
		t.Errorf("Type = %q", ref.Type)
	}
	if title, _ := ref.Text("title"); title != "A Title" {
		t.Errorf("title = %q", title)
	}
	// numbers arrive as JSON numbers and must become plain strings
	if volume, _ := ref.Text("volume"); volume != "3" {
		t.Errorf("volume = %q", volume)
	}

	names, err := ref.Names("author")
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("parsed %d names, want 3", len(names))
	}
	if names[0].Given != "John" || names[0].Family != "Doe" {
		t.Errorf("names[0] = %+v", names[0])
	}
	if names[1].NonDroppingParticle != "van" {
		t.Errorf("names[1] = %+v", names[1])
	}
	if !names[2].IsLiteral() || names[2].Literal != "ACME Corporation" {
		t.Errorf("names[2] = %+v", names[2])
	}

	date, err := ref.Date("issued")
	if err != nil {
		t.Fatalf("Date() error = %v", err)
	}
	if d, ok := date.(bib.Date); !ok || d.Year != 2006 || d.Month != 5 || d.Day != 3 {
		t.Errorf("issued = %+v", date)
	}
}

func TestParseDates(t *testing.T) {
	parseIssued := func(t *testing.T, issued string) bib.DateVariable {
		t.Helper()
		data := `[{"id": "k", "type": "book", "issued": ` + issued + `}]`
		source, err := Parse(strings.NewReader(data), zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		ref, _ := source.Lookup("k")
		date, err := ref.Date("issued")
		if err != nil {
			t.Fatalf("Date() error = %v", err)
		}
		return date
	}

	t.Run("range", func(t *testing.T) {
		date := parseIssued(t, `{"date-parts": [[2001], [2009]]}`)
		r, ok := date.(bib.DateRange)
		if !ok || r.Begin.Year != 2001 || r.End.Year != 2009 {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("season name", func(t *testing.T) {
		date := parseIssued(t, `{"date-parts": [[2006]], "season": "summer"}`)
		d, ok := date.(bib.Date)
		if !ok || d.Season != 2 {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("season number", func(t *testing.T) {
		date := parseIssued(t, `{"date-parts": [[2006]], "season": 4}`)
		if d, ok := date.(bib.Date); !ok || d.Season != 4 {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("circa", func(t *testing.T) {
		date := parseIssued(t, `{"date-parts": [[1000]], "circa": true}`)
		if !date.IsUncertain() {
			t.Error("circa flag lost")
		}
	})

	t.Run("raw iso", func(t *testing.T) {
		date := parseIssued(t, `{"raw": "2005-04-12"}`)
		d, ok := date.(bib.Date)
		if !ok || d.Year != 2005 || d.Month != 4 || d.Day != 12 {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("raw range", func(t *testing.T) {
		date := parseIssued(t, `{"raw": "2001/2009"}`)
		r, ok := date.(bib.DateRange)
		if !ok || r.Begin.Year != 2001 || r.End.Year != 2009 {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("raw fallback to literal", func(t *testing.T) {
		date := parseIssued(t, `{"raw": "early spring 1998"}`)
		l, ok := date.(bib.LiteralDate)
		if !ok || l.Text != "early spring 1998" {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("literal", func(t *testing.T) {
		date := parseIssued(t, `{"literal": "forthcoming"}`)
		if l, ok := date.(bib.LiteralDate); !ok || l.Text != "forthcoming" {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("scalar treated as raw", func(t *testing.T) {
		date := parseIssued(t, `"2005"`)
		if d, ok := date.(bib.Date); !ok || d.Year != 2005 {
			t.Errorf("date = %+v", date)
		}
	})
}

func TestParseSkipsBadRecords(t *testing.T) {
	const data = `[
		{"type": "book", "title": "No Key"},
		{"id": "good", "type": "book", "title": "Good"},
		{"id": "bad-date", "type": "book", "issued": {"date-parts": [[2006, 0, 3]]}}
	]`

	source, err := Parse(strings.NewReader(data), zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected an aggregate error for bad records")
	}
	if len(source) != 1 {
		t.Fatalf("kept %d records, want 1", len(source))
	}
	if _, ok := source.Lookup("good"); !ok {
		t.Error("good record lost")
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, err := Parse(strings.NewReader(`{"not": "an array"}`), zaptest.NewLogger(t)); err == nil {
		t.Error("expected error for non-array document")
	}
}

func TestParseDuplicateKeysKeepLast(t *testing.T) {
	const data = `[
		{"id": "k", "type": "book", "title": "First"},
		{"id": "k", "type": "book", "title": "Second"}
	]`
	source, err := Parse(strings.NewReader(data), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ref, _ := source.Lookup("k")
	if title, _ := ref.Text("title"); title != "Second" {
		t.Errorf("title = %q, want the last record to win", title)
	}
}

func TestParseYAML(t *testing.T) {
	const data = `
- id: doe2006
  type: book
  title: A Title
  author:
    - given: John
      family: Doe
  issued:
    date-parts:
      - [2006]
`
	source, err := ParseYAML(strings.NewReader(data), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	ref, ok := source.Lookup("doe2006")
	if !ok {
		t.Fatal("record not found")
	}
	if title, _ := ref.Text("title"); title != "A Title" {
		t.Errorf("title = %q", title)
	}
	names, err := ref.Names("author")
	if err != nil || len(names) != 1 || names[0].Family != "Doe" {
		t.Errorf("Names() = %+v, %v", names, err)
	}
}

func TestParseRawDate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, err := parseRawDate("  "); err == nil {
			t.Error("expected error for empty raw date")
		}
	})

	t.Run("bc year", func(t *testing.T) {
		date, err := parseRawDate("-44")
		if err != nil {
			t.Fatalf("parseRawDate() error = %v", err)
		}
		if d, ok := date.(bib.Date); !ok || d.Year != -44 {
			t.Errorf("date = %+v", date)
		}
	})

	t.Run("half-literal range stays literal", func(t *testing.T) {
		date, err := parseRawDate("2001/ongoing")
		if err != nil {
			t.Fatalf("parseRawDate() error = %v", err)
		}
		if l, ok := date.(bib.LiteralDate); !ok || l.Text != "2001/ongoing" {
			t.Errorf("date = %+v", date)
		}
	})
}

func TestConvertItemErrors(t *testing.T) {
	t.Run("bad names shape", func(t *testing.T) {
		_, err := convertItem(map[string]any{"id": "k", "author": "not a list"})
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("collects every problem", func(t *testing.T) {
		_, err := convertItem(map[string]any{
			"id":     "k",
			"author": "not a list",
			"issued": map[string]any{},
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if got := len(multierr.Errors(err)); got != 2 {
			t.Errorf("collected %d errors, want 2: %v", got, err)
		}
	})
}
