// Command curate is the WoDaGOAT athlete data curation CLI.
//
// Usage:
//
//	wodagoat-curate enrich scan --all
//	wodagoat-curate enrich scan --ids 3f2a...,9c1b... --apply
//	wodagoat-curate import csv --file athletes.csv --map "Name=name,Country=country_of_origin"
//	wodagoat-curate import csv --file athletes.csv --update --dry-run
//	wodagoat-curate db migrate
//	wodagoat-curate roles grant --user 42
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/cache"
	"github.com/wodagoat/wodagoat-data/internal/config"
	"github.com/wodagoat/wodagoat-data/internal/csvimport"
	"github.com/wodagoat/wodagoat-data/internal/enrich"
	"github.com/wodagoat/wodagoat-data/internal/external"
	"github.com/wodagoat/wodagoat-data/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "wodagoat-curate",
		Short:        "WoDaGOAT athlete data curation CLI",
		SilenceUsage: true,
	}

	root.AddCommand(enrichCmd())
	root.AddCommand(importCmd())
	root.AddCommand(dbCmd())
	root.AddCommand(rolesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// enrich command
// --------------------------------------------------------------------------

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Suggest values for empty athlete fields from Wikipedia",
	}
	cmd.AddCommand(enrichScanCmd())
	return cmd
}

func enrichScanCmd() *cobra.Command {
	var (
		id    string
		ids   []string
		all   bool
		apply bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan athletes and print suggestions (at most 20 per run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, env *curateEnv) error {
				svc := env.enrichService()
				start := time.Now()
				result, err := svc.Scan(ctx, env.caller, enrich.Target{ID: id, IDs: ids, All: all})
				if err != nil {
					return err
				}
				logger.Info("Scan finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				if err := printJSON(result); err != nil {
					return err
				}
				if !apply {
					return nil
				}

				for _, as := range result.AthleteSuggestions {
					applied, err := svc.ApplySuggestions(ctx, env.caller, as.AthleteID, as.Suggestions)
					if err != nil {
						logger.Error("apply error", "athlete", as.AthleteName, "error", err)
						continue
					}
					logger.Info("Applied suggestions", "athlete", as.AthleteName, "fields", applied.AppliedFields)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Scan a single athlete by ID")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Scan a comma-separated list of athlete IDs")
	cmd.Flags().BoolVar(&all, "all", false, "Scan athletes with any empty enrichable field")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply every suggestion found")
	cmd.MarkFlagsMutuallyExclusive("id", "ids", "all")
	cmd.MarkFlagsOneRequired("id", "ids", "all")
	return cmd
}

// --------------------------------------------------------------------------
// import command
// --------------------------------------------------------------------------

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-import athletes",
	}
	cmd.AddCommand(importCSVCmd())
	return cmd
}

func importCSVCmd() *cobra.Command {
	var (
		file       string
		mapSpec    string
		updateMode bool
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Import athletes from a CSV file, matching existing records by exact name",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			return runWith(func(ctx context.Context, env *curateEnv) error {
				if err := env.caller.RequireAdmin(); err != nil {
					return err
				}
				wiz := csvimport.NewWizard(env.store, nil, logger)
				if err := wiz.Upload(string(data)); err != nil {
					return err
				}

				mapping := wiz.Mapping
				if mapSpec != "" {
					if mapping, err = csvimport.ParseMapping(mapSpec); err != nil {
						return err
					}
				} else {
					logger.Info("Using suggested mapping", "mapping", formatMapping(mapping))
				}
				wiz.SetUpdateMode(updateMode)
				if err := wiz.Map(ctx, mapping); err != nil {
					return err
				}
				for _, d := range wiz.Duplicates {
					logger.Info("Duplicate", "name", d.Name, "existing_id", d.ExistingID, "will_be_updated", d.WillBeUpdated)
				}
				logger.Info("Preview",
					"athletes", len(wiz.Candidates),
					"duplicates", len(wiz.Duplicates),
					"dropped", len(wiz.Table.Rows)-len(wiz.Candidates),
					"update_mode", updateMode)
				if dryRun {
					return printJSON(wiz.Candidates)
				}

				start := time.Now()
				result, err := wiz.Commit(ctx)
				if err != nil {
					return err
				}
				logger.Info("Import finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				return printJSON(result)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file to import")
	cmd.Flags().StringVar(&mapSpec, "map", "", `Column mapping, e.g. "Name=name,Country=country_of_origin" (default: suggested from headers)`)
	cmd.Flags().BoolVar(&updateMode, "update", false, "Overwrite existing athletes with non-empty CSV values instead of skipping them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview only; write nothing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// --------------------------------------------------------------------------
// db / roles commands
// --------------------------------------------------------------------------

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the athletes and user_roles tables if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.StoreDriver == config.DriverSQLite {
				st, err := store.OpenSQLite(ctx, cfg.SQLitePath, logger)
				if err != nil {
					return err
				}
				st.Close()
			} else if err := store.MigratePostgres(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied", "driver", cfg.StoreDriver)
			return nil
		},
	})
	return cmd
}

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage curator roles",
	}
	var userID string
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Grant the administrator role to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(func(ctx context.Context, _ *config.Config, st store.Store) error {
				g, ok := st.(interface {
					GrantAdmin(context.Context, string) error
				})
				if !ok {
					return fmt.Errorf("store does not support role grants")
				}
				if err := g.GrantAdmin(ctx, userID); err != nil {
					return err
				}
				logger.Info("Administrator role granted", "user_id", userID)
				return nil
			})
		},
	}
	grant.Flags().StringVar(&userID, "user", "", "User ID")
	_ = grant.MarkFlagRequired("user")
	cmd.AddCommand(grant)
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// curateEnv carries what a curation command needs.
type curateEnv struct {
	cfg    *config.Config
	store  store.Store
	cache  *cache.Cache
	caller auth.Caller
}

// enrichService wires the enrichment pipeline from config.
func (e *curateEnv) enrichService() *enrich.Service {
	extractor := enrich.DefaultExtractor()
	if e.cfg.RulesFile != "" {
		x, err := enrich.LoadExtractorFile(e.cfg.RulesFile)
		if err != nil {
			logger.Warn("Falling back to embedded extraction rules", "file", e.cfg.RulesFile, "error", err)
		} else {
			extractor = x
		}
	}
	lookup := external.NewWikipediaClient(external.WikipediaOptions{
		BaseURL:           e.cfg.WikipediaBaseURL,
		UserAgent:         e.cfg.WikipediaUserAgent,
		Timeout:           e.cfg.LookupTimeout,
		RequestsPerMinute: e.cfg.LookupRPM,
		Cache:             e.cache,
		CacheTTL:          e.cfg.LookupCacheTTL,
		Logger:            logger,
	})
	return enrich.NewService(e.store, lookup, extractor, nil, logger)
}

// runWith handles config loading, store connection, caller resolution and
// context cancellation. Commands act as CURATOR_USER_ID.
func runWith(fn func(ctx context.Context, env *curateEnv) error) error {
	return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		caller, err := auth.NewVerifier(nil, st).Resolve(ctx, cfg.CuratorUserID)
		if err != nil {
			return fmt.Errorf("resolve CURATOR_USER_ID: %w", err)
		}

		c := cache.New(cfg.CacheEnabled)
		defer c.Close()

		return fn(ctx, &curateEnv{cfg: cfg, store: st, cache: c, caller: caller})
	})
}

// runStore handles config loading, store connection, and context cancellation.
func runStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return fn(ctx, cfg, st)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatMapping(m csvimport.Mapping) string {
	parts := make([]string, 0, len(m))
	for header, target := range m {
		parts = append(parts, header+"="+string(target))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
