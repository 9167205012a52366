// Package process implements the render subcommand: it assembles the
// style, locale chain, reference source and output formatter from the
// configuration and the command line, then drives a rendering session
// over the requested citations.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"citeproc/bib"
	"citeproc/bib/csljson"
	"citeproc/bib/refdb"
	"citeproc/config"
	"citeproc/csl"
	"citeproc/format"
	"citeproc/render"
	"citeproc/state"
)

// Run renders the citations given on the command line and the resulting
// bibliography.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	stylePath := cmd.String("style")
	if stylePath == "" {
		stylePath = env.Cfg.Processor.Style
	}
	if stylePath == "" {
		return errors.New("no citation style has been specified")
	}

	if cmd.NArg() == 0 {
		return errors.New("no citations have been specified")
	}

	style, err := csl.LoadStyleFile(stylePath, log)
	if err != nil {
		return fmt.Errorf("unable to load style: %w", err)
	}
	env.Rpt.Store("style.csl", stylePath)

	locale := cmd.String("locale")
	if locale == "" {
		locale = env.Cfg.Processor.Locale
	}
	localeDir := cmd.String("locale-dir")
	if localeDir == "" {
		localeDir = env.Cfg.Processor.LocaleDir
	}
	chain, err := csl.BuildChain(style, locale, localeDir, log)
	if err != nil {
		return fmt.Errorf("unable to resolve locales: %w", err)
	}

	source, err := loadSource(cmd, env.Cfg, log)
	if err != nil {
		return err
	}
	log.Debug("Reference source ready", zap.Int("records", len(source)))

	formatName := cmd.String("format")
	if formatName == "" {
		formatName = env.Cfg.Processor.Format
	}
	formatter, ok := format.ByName(formatName)
	if !ok {
		return fmt.Errorf("unknown output format %q", formatName)
	}

	citations, err := parseCitations(cmd.Args().Slice())
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if dst := cmd.String("output"); dst != "" {
		env.Overwrite = cmd.Bool("overwrite")
		if _, err := os.Stat(dst); err == nil && !env.Overwrite {
			return fmt.Errorf("destination %q already exists", dst)
		}
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create destination: %w", err)
		}
		defer f.Close()
		out = f
	}

	session := render.NewSession(style, chain, source, formatter, log)
	for _, citation := range citations {
		if err := session.Register(citation); err != nil {
			return err
		}
	}
	session.Sort()

	notFound := func(key string) string {
		log.Warn("Reference not found", zap.String("key", key))
		return key + "?"
	}
	for _, citation := range citations {
		text, err := session.Cite(citation, notFound)
		if err != nil {
			return fmt.Errorf("unable to render citation: %w", err)
		}
		fmt.Fprintln(out, text)
	}

	if style.Bibliography != nil && !cmd.Bool("no-bibliography") {
		entries, err := session.Bibliography()
		if err != nil {
			return fmt.Errorf("unable to render bibliography: %w", err)
		}
		fmt.Fprintln(out)
		for _, entry := range entries {
			fmt.Fprintln(out, entry)
		}
	}
	return nil
}

// loadSource builds the reference source: an explicit bibliography file
// wins over the SQLite reference library.
func loadSource(cmd *cli.Command, cfg *config.Config, log *zap.Logger) (bib.Source, error) {
	path := cmd.String("references")
	if path == "" {
		path = cfg.Bibliography.Path
	}
	if path != "" {
		source, err := csljson.Load(path, log)
		if err != nil && source == nil {
			return nil, fmt.Errorf("unable to load references: %w", err)
		}
		if err != nil {
			// bad records were skipped, usable ones remain
			log.Warn("Some bibliography records were skipped", zap.Error(err))
		}
		return source, nil
	}

	dbPath := cmd.String("refdb")
	if dbPath == "" {
		dbPath = cfg.Bibliography.ReferenceDB
	}
	if dbPath == "" {
		return nil, errors.New("no reference source has been specified")
	}
	lib, err := refdb.Open(dbPath, log)
	if err != nil {
		return nil, err
	}
	defer lib.Close()
	return lib.FetchAll()
}

// parseCitations turns command line arguments into citations: every
// argument is one citation, keys inside it are separated by "+", and a
// key may carry a locator as key:label=value.
func parseCitations(args []string) ([]*bib.Citation, error) {
	citations := make([]*bib.Citation, 0, len(args))
	for _, arg := range args {
		var items []*bib.CitationItem
		for _, spec := range strings.Split(arg, "+") {
			spec = strings.TrimSpace(spec)
			if spec == "" {
				continue
			}
			key, locator, hasLocator := strings.Cut(spec, ":")
			item := bib.NewCitationItem(key)
			if hasLocator {
				label, value, ok := strings.Cut(locator, "=")
				if !ok {
					// bare value defaults to a page locator
					label, value = "page", locator
				}
				if value == "" {
					return nil, fmt.Errorf("malformed locator in %q", spec)
				}
				item = item.WithLocator(label, value)
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("empty citation %q", arg)
		}
		citations = append(citations, bib.NewCitation(items...))
	}
	return citations, nil
}
