// Command rosterctl runs operator tasks against the roster backend: minting dev tokens,
// seeding an empty roster and applying database migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chibo-dx/roster-api/internal/adapters/postgres"
	"github.com/chibo-dx/roster-api/internal/platform/auth/tokens"
	"github.com/chibo-dx/roster-api/internal/platform/bootstrap"
	platformclock "github.com/chibo-dx/roster-api/internal/platform/clock"
	"github.com/chibo-dx/roster-api/internal/platform/config"
	"github.com/chibo-dx/roster-api/internal/platform/logging"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}

type loadConfigFunc func() (config.Config, error)

func newRootCmd(load loadConfigFunc) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Operator tools for the branch roster API",
		Long: `Operator tools for the branch roster API.

Configuration comes from the same environment (and .env file) as the API server.

Available subcommands:
  token   - Mint a bearer token for a subject
  seed    - Load a seed file into an empty roster
  migrate - Apply pending Postgres migrations`,
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	root.AddCommand(newTokenCmd(load))
	root.AddCommand(newSeedCmd(load, withTimeout))
	root.AddCommand(newMigrateCmd(load, withTimeout))
	return root
}

func newTokenCmd(load loadConfigFunc) *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for a subject",
		Long: `Mint an HS256 bearer token signed with JWT_SECRET.

The token carries JWT_ISSUER and JWT_AUDIENCE, so the API accepts it as long as the
subject is bound to a member record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := tokens.NewIssuer(cfg.Auth, nil).Mint(args[0], name, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default JWT_TOKEN_TTL)")
	return cmd
}

func newSeedCmd(load loadConfigFunc, withTimeout func(*cobra.Command) (context.Context, context.CancelFunc)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load a seed file into an empty roster",
		Long: `Load a YAML seed file into the configured storage backend.

The file defaults to SEED_PATH. A roster that already has members is left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			path := cfg.SeedPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no seed file given and SEED_PATH is not set")
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			log := logging.New(logging.Options{Dev: true, Out: cmd.ErrOrStderr()})

			st, err := bootstrap.OpenStorage(ctx, cfg.Storage, cfg.Auth.Issuer, log)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := bootstrap.NewServices(st, platformclock.NewSystemClock(), log, bootstrap.ServiceOptions{})
			res, applied, err := bootstrap.SeedIfEmpty(ctx, svc.Seed, path, log)
			if err != nil {
				return err
			}
			return printSeedResult(cmd.OutOrStdout(), applied, res.Members, res.Meetings, res.Fees)
		},
	}
}

func printSeedResult(w io.Writer, applied bool, members, meetings, fees int) error {
	if !applied {
		_, err := fmt.Fprintln(w, "roster already populated; nothing seeded")
		return err
	}
	_, err := fmt.Fprintf(w, "seeded %d members, %d meetings, %d fees\n", members, meetings, fees)
	return err
}

func newMigrateCmd(load loadConfigFunc, withTimeout func(*cobra.Command) (context.Context, context.CancelFunc)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate needs STORAGE_BACKEND=postgres, got %q", cfg.Storage.Backend)
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL, postgres.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
				return err
			}
			for _, name := range applied {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
