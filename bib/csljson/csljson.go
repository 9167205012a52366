// Package csljson reads bibliographies in the CSL-JSON interchange
// format (and its YAML rendition) into bib records. Malformed records
// are reported and skipped; one bad entry never poisons the rest of the
// file.
package csljson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"citeproc/bib"
)

// Load reads a bibliography file, picking the decoder from the file
// extension: .yaml/.yml for YAML, anything else JSON.
func Load(path string, log *zap.Logger) (bib.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bibliography: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f, log)
	default:
		return Parse(f, log)
	}
}

// Parse decodes a CSL-JSON array of items. The returned error collects
// per-record problems; the source still contains every record that
// decoded cleanly.
func Parse(r io.Reader, log *zap.Logger) (bib.Source, error) {
	var items []map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding CSL-JSON: %w", err)
	}
	return convert(items, log)
}

// ParseYAML decodes the YAML rendition of CSL-JSON.
func ParseYAML(r io.Reader, log *zap.Logger) (bib.Source, error) {
	var items []map[string]any
	if err := yaml.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding CSL-YAML: %w", err)
	}
	return convert(items, log)
}

func convert(items []map[string]any, log *zap.Logger) (bib.Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	source := make(bib.Source, len(items))
	var errs error
	for i, item := range items {
		ref, err := convertItem(item)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %d: %w", i, err))
			log.Warn("Skipping malformed bibliography record", zap.Int("record", i), zap.Error(err))
			continue
		}
		if _, dup := source.Lookup(ref.Key); dup {
			log.Warn("Duplicate citation key, keeping the last record", zap.String("key", ref.Key))
		}
		source.Add(ref)
	}
	return source, errs
}

func convertItem(item map[string]any) (*bib.Reference, error) {
	key := scalarString(item["id"])
	if key == "" {
		return nil, fmt.Errorf("missing id")
	}
	ref := bib.NewReference(key, scalarString(item["type"]))

	var errs error
	for name, value := range item {
		switch {
		case name == "id" || name == "type":
			// already consumed
		case bib.IsNameVariable(name):
			names, err := convertNames(value)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			ref.SetNames(name, names)
		case bib.IsDateVariable(name):
			date, err := convertDate(value)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			ref.SetDate(name, date)
		default:
			ref.SetText(name, scalarString(value))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return ref, nil
}

func convertNames(value any) ([]bib.Name, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of names")
	}
	names := make([]bib.Name, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a name object")
		}
		names = append(names, bib.Name{
			Literal:             scalarString(m["literal"]),
			Given:               scalarString(m["given"]),
			Family:              scalarString(m["family"]),
			DroppingParticle:    scalarString(m["dropping-particle"]),
			NonDroppingParticle: scalarString(m["non-dropping-particle"]),
			Suffix:              scalarString(m["suffix"]),
		})
	}
	return names, nil
}

var seasonNames = map[string]int{
	"spring": 1, "summer": 2, "autumn": 3, "fall": 3, "winter": 4,
}

func convertDate(value any) (bib.DateVariable, error) {
	m, ok := value.(map[string]any)
	if !ok {
		// a bare scalar date is treated as raw
		return parseRawDate(scalarString(value))
	}

	if literal := scalarString(m["literal"]); literal != "" {
		return bib.LiteralDate{Text: literal}, nil
	}

	circa := false
	if c, ok := m["circa"]; ok {
		switch v := c.(type) {
		case bool:
			circa = v
		default:
			circa = scalarString(c) != ""
		}
	}

	if parts, ok := m["date-parts"]; ok {
		return convertDateParts(parts, m, circa)
	}
	if raw := scalarString(m["raw"]); raw != "" {
		date, err := parseRawDate(raw)
		if err != nil {
			return nil, err
		}
		if d, ok := date.(bib.Date); ok {
			d.Circa = circa
			return d, nil
		}
		return date, nil
	}
	return nil, fmt.Errorf("date without date-parts, raw or literal")
}

func convertDateParts(value any, m map[string]any, circa bool) (bib.DateVariable, error) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 || len(list) > 2 {
		return nil, fmt.Errorf("date-parts must hold one or two part lists")
	}

	begin, err := convertSingleDate(list[0])
	if err != nil {
		return nil, err
	}
	begin.Season = seasonNumber(m["season"])

	if len(list) == 2 {
		end, err := convertSingleDate(list[1])
		if err != nil {
			return nil, err
		}
		return bib.DateRange{Begin: begin, End: end, Circa: circa}, nil
	}
	begin.Circa = circa
	return begin, nil
}

func convertSingleDate(value any) (bib.Date, error) {
	list, ok := value.([]any)
	if !ok {
		return bib.Date{}, fmt.Errorf("date part list expected")
	}
	parts := make([]int, 3)
	if len(list) > 3 {
		return bib.Date{}, fmt.Errorf("too many date parts")
	}
	for i, p := range list {
		n, err := scalarInt(p)
		if err != nil {
			return bib.Date{}, fmt.Errorf("date part %d: %w", i, err)
		}
		parts[i] = n
	}
	return bib.NewDate(parts[0], parts[1], parts[2])
}

func seasonNumber(value any) int {
	if value == nil {
		return 0
	}
	if n, err := scalarInt(value); err == nil && n >= 1 && n <= 4 {
		return n
	}
	return seasonNames[strings.ToLower(scalarString(value))]
}

var rawDatePattern = regexp.MustCompile(`^(-?\d{1,4})(?:-(\d{1,2})(?:-(\d{1,2}))?)?$`)

// parseRawDate understands ISO-style dates ("2005", "2005-04",
// "2005-04-12") and slash-separated ranges; anything else becomes a
// literal date rendered verbatim.
func parseRawDate(raw string) (bib.DateVariable, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty raw date")
	}

	if begin, end, ok := strings.Cut(raw, "/"); ok {
		b, okB := parseRawSingle(begin)
		e, okE := parseRawSingle(end)
		if okB && okE {
			return bib.DateRange{Begin: b, End: e}, nil
		}
		return bib.LiteralDate{Text: raw}, nil
	}
	if d, ok := parseRawSingle(raw); ok {
		return d, nil
	}
	return bib.LiteralDate{Text: raw}, nil
}

func parseRawSingle(s string) (bib.Date, bool) {
	m := rawDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return bib.Date{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	date, err := bib.NewDate(year, month, day)
	if err != nil {
		return bib.Date{}, false
	}
	return date, true
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func scalarInt(value any) (int, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("not a number: %v", value)
	}
}
