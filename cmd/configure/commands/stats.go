package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teomarche/study-garden/internal/config"
	"github.com/teomarche/study-garden/internal/database"
)

// NewStatsCmd creates the study statistics command with show and reset
// subcommands.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Inspect accumulated study statistics",
	}
	cmd.AddCommand(newStatsShowCmd())
	cmd.AddCommand(newStatsResetCmd())
	return cmd
}

func openStatsRepo() (*database.DB, *database.StudyStatsRepository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, database.NewStudyStatsRepository(db), nil
}

func newStatsShowCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show per-topic statistics for a garden",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("--key is required")
			}

			db, repo, err := openStatsRepo()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			stats, err := repo.GetByGarden(context.Background(), key)
			if err != nil {
				return fmt.Errorf("get statistics: %w", err)
			}
			if len(stats) == 0 {
				fmt.Println("No statistics recorded for that garden yet.")
				return nil
			}
			fmt.Printf("%-38s %10s %10s %10s %13s\n", "TOPIC", "SESSIONS", "ANSWERS", "MISTAKES", "PERFECT RUNS")
			for _, s := range stats {
				fmt.Printf("%-38s %10d %10d %10d %13d\n",
					s.TopicID, s.Sessions, s.Answers, s.Mistakes, s.PerfectRuns)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Secret key of the garden (required)")
	return cmd
}

func newStatsResetCmd() *cobra.Command {
	var key string
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all statistics for a garden",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			if !force {
				return fmt.Errorf("reset is irreversible; pass --force to confirm")
			}

			db, repo, err := openStatsRepo()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := repo.DeleteByGarden(context.Background(), key); err != nil {
				return fmt.Errorf("delete statistics: %w", err)
			}
			fmt.Println("Statistics reset.")
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Secret key of the garden (required)")
	cmd.Flags().BoolVar(&force, "force", false, "Confirm reset")
	return cmd
}
