package process

import "testing"

func TestParseCitations(t *testing.T) {
	t.Run("single key", func(t *testing.T) {
		citations, err := parseCitations([]string{"smith2006"})
		if err != nil {
			t.Fatalf("parseCitations() error = %v", err)
		}
		if len(citations) != 1 || len(citations[0].Items) != 1 {
			t.Fatalf("citations = %+v", citations)
		}
		if citations[0].Items[0].Key != "smith2006" {
			t.Errorf("key = %q", citations[0].Items[0].Key)
		}
	})

	t.Run("grouped keys", func(t *testing.T) {
		citations, err := parseCitations([]string{"smith2006+doe2011"})
		if err != nil {
			t.Fatalf("parseCitations() error = %v", err)
		}
		items := citations[0].Items
		if len(items) != 2 || items[0].Key != "smith2006" || items[1].Key != "doe2011" {
			t.Errorf("items = %+v", items)
		}
		if items[0].Citation() != citations[0] {
			t.Error("items not linked to their citation")
		}
	})

	t.Run("labelled locator", func(t *testing.T) {
		citations, err := parseCitations([]string{"smith2006:chapter=3"})
		if err != nil {
			t.Fatalf("parseCitations() error = %v", err)
		}
		item := citations[0].Items[0]
		if !item.HasLocator() || item.Locator.Label != "chapter" || item.Locator.Identifier != "3" {
			t.Errorf("locator = %+v", item.Locator)
		}
	})

	t.Run("bare locator defaults to page", func(t *testing.T) {
		citations, err := parseCitations([]string{"smith2006:12-15"})
		if err != nil {
			t.Fatalf("parseCitations() error = %v", err)
		}
		item := citations[0].Items[0]
		if !item.HasLocator() || item.Locator.Label != "page" || item.Locator.Identifier != "12-15" {
			t.Errorf("locator = %+v", item.Locator)
		}
	})

	t.Run("multiple arguments are separate citations", func(t *testing.T) {
		citations, err := parseCitations([]string{"a", "b+c"})
		if err != nil {
			t.Fatalf("parseCitations() error = %v", err)
		}
		if len(citations) != 2 || len(citations[0].Items) != 1 || len(citations[1].Items) != 2 {
			t.Errorf("citations = %+v", citations)
		}
	})

	t.Run("empty citation", func(t *testing.T) {
		if _, err := parseCitations([]string{"+"}); err == nil {
			t.Error("expected error for empty citation")
		}
	})

	t.Run("malformed locator", func(t *testing.T) {
		if _, err := parseCitations([]string{"smith2006:page="}); err == nil {
			t.Error("expected error for empty locator value")
		}
	})
}
