package process

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"citeproc/bib/refdb"
	"citeproc/state"
)

// ImportDB loads CSL-JSON file(s) into the SQLite reference library,
// replacing records with matching keys.
func ImportDB(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("refdb")

	dbPath := cmd.String("refdb")
	if dbPath == "" {
		dbPath = env.Cfg.Bibliography.ReferenceDB
	}
	if dbPath == "" {
		return errors.New("no reference database has been specified")
	}
	if cmd.NArg() == 0 {
		return errors.New("no input files have been specified")
	}

	lib, err := refdb.Open(dbPath, log)
	if err != nil {
		return err
	}
	defer lib.Close()

	total := 0
	for _, path := range cmd.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to read %q: %w", path, err)
		}
		stored, err := lib.Import(data)
		if err != nil {
			return fmt.Errorf("unable to import %q: %w", path, err)
		}
		log.Info("Imported references", zap.String("file", path), zap.Int("records", stored))
		total += stored
	}
	log.Info("Reference database updated", zap.String("db", dbPath), zap.Int("records", total))
	return nil
}
