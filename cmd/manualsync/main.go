// Command manualsync is the operator CLI for the league sync: on-demand sync runs,
// salary table ingestion and read-only queries printed as JSON.
//
// Usage:
//
//	manualsync sync
//	manualsync salaries import contracts.csv
//	manualsync salaries static
//	manualsync query teams
//	manualsync query free-agents --limit 25
//	manualsync query player 3895074
//	manualsync query team-player-history 4 --stat goals
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fantasy_nhl/ingestion/internal/app"
	"fantasy_nhl/ingestion/internal/config"
	"fantasy_nhl/ingestion/internal/models"
	"fantasy_nhl/ingestion/internal/query"
	"fantasy_nhl/ingestion/internal/sidechannel"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	setupLogger()

	root := &cobra.Command{
		Use:           "manualsync",
		Short:         "Fantasy NHL league sync operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(syncCmd())
	root.AddCommand(salariesCmd())
	root.AddCommand(queryCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// setupLogger sends logs to stderr so stdout carries only command output
func setupLogger() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full league sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Pipeline.Run(ctx)
				if printErr := printJSON(res); printErr != nil {
					return printErr
				}
				if err != nil {
					return fmt.Errorf("sync %s: %w", res.Status, err)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// salaries command
// --------------------------------------------------------------------------

func salariesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salaries",
		Short: "Apply salary and contract tables to stored players",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.csv>",
		Short: "Apply a CSV with Full Name, Cap Hit and Years Left columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open salary file: %w", err)
			}
			defer f.Close()

			records, err := sidechannel.ParseSalaryCSV(f)
			if err != nil {
				return err
			}
			return applySalaries(records)
		},
	})

	var path string
	static := &cobra.Command{
		Use:   "static",
		Short: "Apply the bundled salary reference table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path = cfg.SalaryTablePath
			}
			records, err := sidechannel.LoadSalaryFile(path)
			if err != nil {
				return err
			}
			return applySalaries(records)
		},
	}
	static.Flags().StringVar(&path, "path", "", "Salary table YAML (default SALARY_TABLE_PATH)")
	cmd.AddCommand(static)

	return cmd
}

func applySalaries(records []models.SalaryRecord) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		updated, err := a.DB.Players.ApplySalaries(ctx, records)
		if err != nil {
			return err
		}
		if a.Cache != nil {
			if err := a.Cache.Invalidate(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to invalidate query cache")
			}
		}
		return printJSON(map[string]int{"rows": len(records), "updated": updated})
	})
}

// --------------------------------------------------------------------------
// query command
// --------------------------------------------------------------------------

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read persisted league state as JSON",
	}

	cmd.AddCommand(queryCommand("teams", "Teams by rank with rosters", cobra.NoArgs,
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			return q.ListTeams(ctx)
		}))

	var limit int
	freeAgents := queryCommand("free-agents", "Free agents by total points", cobra.NoArgs,
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			return q.FreeAgents(ctx, limit)
		})
	freeAgents.Flags().IntVar(&limit, "limit", query.DefaultFreeAgentLimit, "Maximum number of players")
	cmd.AddCommand(freeAgents)

	cmd.AddCommand(queryCommand("player <id>", "One player's current record", cobra.ExactArgs(1),
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return q.Player(ctx, id)
		}))

	cmd.AddCommand(queryCommand("player-history <id>", "One player's daily snapshots", cobra.ExactArgs(1),
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return q.PlayerHistory(ctx, id)
		}))

	cmd.AddCommand(queryCommand("team-history", "Team points per day", cobra.NoArgs,
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			return q.TeamHistory(ctx)
		}))

	var stat string
	teamPlayers := queryCommand("team-player-history <team-id>", "A stat per day for a team's players", cobra.ExactArgs(1),
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return q.PlayerHistoryByTeam(ctx, id, stat)
		})
	teamPlayers.Flags().StringVar(&stat, "stat", "total_points", "Snapshot stat to plot")
	cmd.AddCommand(teamPlayers)

	cmd.AddCommand(queryCommand("scoring", "The league's live scoring mapping", cobra.NoArgs,
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			return q.ScoringMapping(ctx), nil
		}))

	var teamID int
	trades := queryCommand("trade-suggestions", "Free-agent pickups and a team's drop candidates", cobra.NoArgs,
		func(ctx context.Context, q *query.Service, args []string) (any, error) {
			return q.TradeSuggestions(ctx, teamID)
		})
	trades.Flags().IntVar(&teamID, "team", 0, "Team whose weakest players are listed as drop candidates")
	cmd.AddCommand(trades)

	return cmd
}

func queryCommand(use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, q *query.Service, args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				v, err := fn(ctx, a.Query, args)
				if errors.Is(err, query.ErrNotFound) {
					return fmt.Errorf("no such record: %w", err)
				}
				if err != nil {
					return err
				}
				return printJSON(v)
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withApp handles config loading, connections and context cancellation
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	return fn(ctx, a)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
