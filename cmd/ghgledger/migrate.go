package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ghgledger/internal/platform/config"
	"ghgledger/internal/platform/database"
	"ghgledger/internal/platform/logger"
	"ghgledger/internal/platform/migrate"
)

var errNoDatabase = errors.New("database.url is required for migrations")

func newMigrateCmd(load func() (config.Server, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	withPool := func(fn func(cfg config.Server, pool *database.Pool) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return errNoDatabase
			}
			pool, err := database.New(cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close() //nolint:errcheck // process exits right after
			return fn(cfg, pool)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: withPool(func(cfg config.Server, pool *database.Pool) error {
			return migrate.Up(pool.DB(), logger.New(cfg.LogLevel))
		}),
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: withPool(func(cfg config.Server, pool *database.Pool) error {
			return migrate.Down(pool.DB(), steps, logger.New(cfg.LogLevel))
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withPool(func(_ config.Server, pool *database.Pool) error {
				v, dirty, err := migrate.Version(pool.DB())
				if err != nil {
					return err
				}
				out := strconv.FormatUint(uint64(v), 10)
				if dirty {
					out += " (dirty)"
				}
				_, err = fmt.Fprintln(c.OutOrStdout(), out)
				return err
			})(c, args)
		},
	})
	return cmd
}
