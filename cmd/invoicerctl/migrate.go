package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/invoicer/backend/internal/infrastructure/migration"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
		Long: `Apply or inspect the versioned SQL migrations. The migrations compiled
into the binary are used unless --dir points at a migrations directory.

sqlite databases are auto-migrated by the server and have no versions.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Migrations directory (default: embedded migrations)")

	// migrator opens a migrator over the app database. It is not closed:
	// closing it would close the pool the app closes itself.
	migrator := func() (*migration.Migrator, error) {
		if a.cfg.Database.Driver == "sqlite" {
			return nil, errors.New("versioned migrations need the postgres driver")
		}
		if dir == "" {
			return migration.New(a.db.SQL(), a.log)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		return migration.NewFromDir(a.db.SQL(), abs, a.log)
	}

	run := func(use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				if err := fn(m, args); err != nil {
					return err
				}
				return printVersion(cmd.OutOrStdout(), m)
			},
		}
	}

	up := run("up", "Apply all pending migrations", cobra.NoArgs,
		func(m *migration.Migrator, _ []string) error { return m.Up() })

	down := run("down", "Roll back every migration", cobra.NoArgs,
		func(m *migration.Migrator, _ []string) error { return m.Down() })

	step := run("step <n>", "Apply n migrations, negative n rolls back", cobra.ExactArgs(1),
		func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		})

	gotoCmd := run("goto <version>", "Migrate up or down to a version", cobra.ExactArgs(1),
		func(m *migration.Migrator, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(v))
		})

	force := run("force <version>", "Set the version without migrating and clear the dirty flag", cobra.ExactArgs(1),
		func(m *migration.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		})

	status := run("version", "Show the applied version", cobra.NoArgs,
		func(*migration.Migrator, []string) error { return nil })

	var confirm bool
	drop := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("refusing to drop without --confirm")
			}
			m, err := migrator()
			if err != nil {
				return err
			}
			if err := m.Drop(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database dropped")
			return nil
		},
	}
	drop.Flags().BoolVar(&confirm, "confirm", false, "Confirm dropping all data")

	list := offline(&cobra.Command{
		Use:   "list",
		Short: "List the available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fsys := migration.Embedded()
			if dir != "" {
				fsys = os.DirFS(dir)
			}
			return printMigrations(cmd.OutOrStdout(), fsys)
		},
	})

	create := offline(&cobra.Command{
		Use:   "create <name> [description]",
		Short: "Write an empty up/down migration pair into --dir",
		Args:  cobra.RangeArgs(1, 2),
		Example: `  invoicerctl migrate create add_tax_rate "Add tax rate to invoices" \
    --dir internal/infrastructure/migration/sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return errors.New("create needs --dir pointing at the source migrations")
			}
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	})

	cmd.AddCommand(up, down, step, gotoCmd, force, status, drop, list, create)
	return cmd
}

func printVersion(out io.Writer, m *migration.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	switch {
	case v == 0:
		fmt.Fprintln(out, "no migrations applied")
	case dirty:
		fmt.Fprintf(out, "version %d (dirty)\n", v)
	default:
		fmt.Fprintf(out, "version %d\n", v)
	}
	return nil
}

func printMigrations(out io.Writer, fsys fs.FS) error {
	entries, err := migration.ListMigrations(fsys)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "no migrations found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%06d  %s\n", e.Version, e.Name)
	}
	return nil
}

// offline marks cmd as not needing configuration or a database
func offline(cmd *cobra.Command) *cobra.Command {
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error { return nil }
	return cmd
}
