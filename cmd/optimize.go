package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/calltime/slate/pkg/storage"
)

// OptimizeCommand creates the optimize command with its subcommands
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Database maintenance operations",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Update query planner statistics",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						fmt.Println("Running ANALYZE...")
						return store.Analyze()
					})
				},
			},
			{
				Name:  "vacuum",
				Usage: "Rebuild the database file to reclaim space",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						fmt.Println("Running VACUUM...")
						return store.Vacuum()
					})
				},
			},
			{
				Name:  "checkpoint",
				Usage: "Checkpoint the write-ahead log",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						fmt.Println("Checkpointing WAL...")
						return store.WALCheckpoint()
					})
				},
			},
			{
				Name:  "all",
				Usage: "Run optimize, analyze, vacuum and checkpoint",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						steps := []struct {
							name string
							run  func() error
						}{
							{"optimize", store.Optimize},
							{"analyze", store.Analyze},
							{"vacuum", store.Vacuum},
							{"checkpoint", store.WALCheckpoint},
						}
						for _, step := range steps {
							fmt.Printf("Running %s...\n", step.name)
							if err := step.run(); err != nil {
								return fmt.Errorf("%s: %w", step.name, err)
							}
						}
						fmt.Println("Done")
						return nil
					})
				},
			},
		},
	}
}

func withStore(configPath string, fn func(*storage.Store) error) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()
	return fn(store)
}
