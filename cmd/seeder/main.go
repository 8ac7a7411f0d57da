package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/config"
	"github.com/mauv0809/pong-ladder/internal/database"
	"github.com/spf13/cobra"
)

var (
	backfill bool
	reset    bool
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Seed the ladder with its original players",
	Long: `Creates the original ladder players with their starting ratings.
Players that already exist are left alone. With --backfill, players that
have no starting rating recorded get one.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, teardown, err := database.InitDB(cfg.DBName, cfg.TursoPrimaryURL, cfg.TursoAuthToken)
		if err != nil {
			return err
		}
		defer teardown()

		store := club.New(db)
		ctx := context.Background()
		if reset {
			log.Warn("Clearing every player and match before seeding")
			if err := store.Clear(ctx); err != nil {
				return err
			}
		}
		summary, err := seed(ctx, store, originalPlayers)
		if err != nil {
			return err
		}
		log.Info("Seeding finished", "created", summary.Created, "existing", summary.Existing)

		if backfill {
			n, err := backfillStartingRatings(ctx, store, originalPlayers)
			if err != nil {
				return err
			}
			log.Info("Backfill finished", "updated", n)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolVar(&backfill, "backfill", false, "Set missing starting ratings")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Delete all players and matches first")
}

func main() {
	log.Info("Starting database seeder...")
	if err := rootCmd.Execute(); err != nil {
		log.Error("Seeder failed", "error", err)
		os.Exit(1)
	}
}
