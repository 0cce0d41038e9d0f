package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/db"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/sym"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: sym.DB + " Manage the directory database",
	Long: sym.DB + ` db - Manage the directory database

The directory database holds the people, channels, topics, groups and custom
emoji that suggestions are drawn from.

Examples:
  typeahead db migrate                  # Apply pending migrations
  typeahead db seed --demo              # Load the built-in demo realm
  typeahead db seed realm.yaml          # Load a fixture file
  typeahead db stats                    # Show what the directory holds`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE:  runDbMigrate,
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed [fixture.yaml]",
	Short: "Load a realm fixture into the database",
	Long:  "Load a YAML realm fixture, or the built-in demo realm with --demo. Rows with existing ids are replaced.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDbSeed,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show directory statistics",
	RunE:  runDbStats,
}

var seedDemo bool

func init() {
	dbSeedCmd.Flags().BoolVar(&seedDemo, "demo", false, "Load the built-in demo realm")

	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbSeedCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

// configuredDBPath loads config only to resolve the database path.
func configuredDBPath() (string, error) {
	cfg, err := am.Load()
	if err != nil {
		return "", errors.Wrap(err, "failed to load configuration")
	}
	return resolveDBPath(cfg), nil
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	dbPath, err := configuredDBPath()
	if err != nil {
		return err
	}
	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	defer database.Close()

	pending, err := db.Pending(database)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		pterm.Success.Printf("Database %s is up to date\n", dbPath)
		return nil
	}
	for _, m := range pending {
		pterm.Info.Printf("Applying %s\n", m.Name)
	}
	if err := db.Migrate(database, logger.Logger); err != nil {
		return errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}
	pterm.Success.Printf("Applied %d migrations to %s\n", len(pending), dbPath)
	return nil
}

func runDbSeed(cmd *cobra.Command, args []string) error {
	if seedDemo == (len(args) == 1) {
		return errors.New("pass either a fixture file or --demo")
	}

	var (
		fixture *db.Fixture
		err     error
	)
	if seedDemo {
		fixture, err = db.DemoFixture()
	} else {
		fixture, err = readFixture(args[0])
	}
	if err != nil {
		return err
	}

	dbPath, err := configuredDBPath()
	if err != nil {
		return err
	}
	database, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	spinner, _ := pterm.DefaultSpinner.Start("Seeding " + dbPath)
	if err := db.Seed(cmd.Context(), database, fixture); err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		return errors.Wrap(err, "failed to seed database")
	}
	if spinner != nil {
		spinner.Success(fmt.Sprintf("Seeded %d users, %d channels, %d groups, %d custom emoji",
			len(fixture.Users), len(fixture.Streams), len(fixture.Groups), len(fixture.RealmEmoji)))
	}
	return nil
}

func readFixture(path string) (*db.Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open fixture %s", path)
	}
	defer f.Close()

	fixture, err := db.ParseFixture(f)
	if err != nil {
		return nil, errors.Wrapf(err, "fixture %s", path)
	}
	return fixture, nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	dbPath, err := configuredDBPath()
	if err != nil {
		return err
	}
	database, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	return printStats(cmd.Context(), cmd.OutOrStdout(), database, dbPath)
}

// statsTables are the row counts shown by db stats.
var statsTables = map[string]string{
	"users":            "SELECT COUNT(*) FROM users",
	"active users":     "SELECT COUNT(*) FROM users WHERE is_active = 1",
	"channels":         "SELECT COUNT(*) FROM streams",
	"topics":           "SELECT COUNT(*) FROM topics",
	"groups":           "SELECT COUNT(*) FROM user_groups",
	"custom emoji":     "SELECT COUNT(*) FROM realm_emoji",
	"dm conversations": "SELECT COUNT(*) FROM dm_conversations",
}

func printStats(ctx context.Context, w io.Writer, database *sql.DB, dbPath string) error {
	names := make([]string, 0, len(statsTables))
	for name := range statsTables {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%s Directory Statistics\n", sym.DB)
	fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Fprintf(w, "%-18s %s\n", "Database Path:", dbPath)
	for _, name := range names {
		var n int
		if err := database.QueryRowContext(ctx, statsTables[name]).Scan(&n); err != nil {
			return errors.Wrapf(err, "failed to count %s", name)
		}
		fmt.Fprintf(w, "%-18s %d\n", name+":", n)
	}
	return nil
}
