package commands

import (
	"context"
	"database/sql"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/db"
	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/typeahead"
)

// DBPathFlag is the persistent --db-path flag; empty means the configured path.
var DBPathFlag string

// resolveDBPath picks --db-path over database.path over the default.
func resolveDBPath(cfg *am.Config) string {
	if DBPathFlag != "" {
		return DBPathFlag
	}
	return cfg.GetDatabasePath()
}

// openDatabase opens and migrates the directory database.
func openDatabase(dbPath string) (*sql.DB, error) {
	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return database, nil
}

// workspace is everything a one-shot command needs to answer a query.
type workspace struct {
	cfg        *am.Config
	db         *sql.DB
	dir        *directory.Directory
	dispatcher *typeahead.Dispatcher
}

// openWorkspace loads config, opens the database and loads the directory.
func openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	database, err := openDatabase(resolveDBPath(cfg))
	if err != nil {
		return nil, err
	}

	dir, err := newDirectory(ctx, database, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &workspace{
		cfg:        cfg,
		db:         database,
		dir:        dir,
		dispatcher: newDispatcher(dir, cfg),
	}, nil
}

func (w *workspace) Close() error {
	w.dir.Wait()
	return w.db.Close()
}

func newDirectory(ctx context.Context, database *sql.DB, cfg *am.Config) (*directory.Directory, error) {
	dir, err := directory.New(database, directory.Options{
		RegistryPath:     cfg.Directory.RegistryPath,
		RefreshPerMinute: cfg.Directory.RefreshPerMinute,
		Logger:           logger.ComponentLogger("directory"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}
	if err := dir.Refresh(ctx); err != nil {
		wrapped := errors.Wrap(err, "failed to load directory")
		if db.IsMissingSchema(err) {
			return nil, errors.WithHint(wrapped, "run 'typeahead db migrate' to create the schema")
		}
		return nil, errors.WithHint(wrapped, "run 'typeahead db seed --demo' to create a demo realm")
	}
	return dir, nil
}

func newDispatcher(dir typeahead.Directory, cfg *am.Config) *typeahead.Dispatcher {
	return typeahead.NewDispatcher(dir, typeahead.Options{
		Config: cfg.GetTypeaheadConfig(),
		Realm:  cfg.GetRealmConfig(),
		Logger: logger.ComponentLogger("typeahead"),
	})
}
