package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teomarche/study-garden/internal/config"
	"github.com/teomarche/study-garden/internal/database"
	"github.com/teomarche/study-garden/internal/logger"
	"github.com/teomarche/study-garden/internal/models"
)

// NewGardensCmd creates the gardens management command with list, create
// and delete subcommands.
func NewGardensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gardens",
		Short: "Manage stored gardens",
		Long:  "List, create or delete gardens in the remote store.",
	}
	cmd.AddCommand(newGardensListCmd())
	cmd.AddCommand(newGardensCreateCmd())
	cmd.AddCommand(newGardensDeleteCmd())
	return cmd
}

func openGardenRepo() (*database.DB, *database.GardenRepository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, database.NewGardenRepository(db), nil
}

func newGardensListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List gardens (keys are masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, repo, err := openGardenRepo()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			gardens, err := repo.ListKeys(context.Background())
			if err != nil {
				return fmt.Errorf("list gardens: %w", err)
			}
			if len(gardens) == 0 {
				fmt.Println("No gardens in the store.")
				return nil
			}
			fmt.Printf("Found %d garden(s):\n", len(gardens))
			for _, g := range gardens {
				fmt.Printf("  %s  topics=%d  updated=%s\n",
					logger.MaskSecretKey(g.SecretKey),
					len(g.Topics),
					g.UpdatedAt.Format("2006-01-02 15:04:05"),
				)
			}
			return nil
		},
	}
}

func newGardensCreateCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty garden for a secret key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("--key is required")
			}

			db, repo, err := openGardenRepo()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx := context.Background()
			if _, err := repo.GetBySecretKey(ctx, key); err == nil {
				return fmt.Errorf("a garden already exists for that key")
			} else if !errors.Is(err, database.ErrGardenNotFound) {
				return fmt.Errorf("check existing garden: %w", err)
			}

			g := &models.Garden{SecretKey: key, Topics: []models.Topic{}}
			if err := repo.Create(ctx, g); err != nil {
				return fmt.Errorf("create garden: %w", err)
			}
			fmt.Println("Garden created.")
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Secret key for the new garden (required)")
	return cmd
}

func newGardensDeleteCmd() *cobra.Command {
	var key string
	var force bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a garden and all its topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			if !force {
				return fmt.Errorf("deletion is irreversible; pass --force to confirm")
			}

			db, repo, err := openGardenRepo()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := repo.Delete(context.Background(), key); err != nil {
				return fmt.Errorf("delete garden: %w", err)
			}
			fmt.Println("Garden deleted.")
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Secret key of the garden (required)")
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")
	return cmd
}
