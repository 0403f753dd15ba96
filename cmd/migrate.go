package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/calltime/slate/pkg/db"
	"github.com/calltime/slate/pkg/storage"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying anything",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withStore(c.String("config"), func(store *storage.Store) error {
				migrator := db.NewMigrator(store.DB())

				if c.Bool("status") {
					status, err := migrator.Status()
					if err != nil {
						return fmt.Errorf("reading migration status: %w", err)
					}

					fmt.Printf("Applied migrations: %d\n", len(status.Applied))
					for _, m := range status.Applied {
						applied := ""
						if m.AppliedAt != nil {
							applied = " (" + formatTime(*m.AppliedAt) + ")"
						}
						fmt.Printf("  %03d %s%s\n", m.Version, m.Name, applied)
					}

					fmt.Printf("Pending migrations: %d\n", len(status.Pending))
					for _, m := range status.Pending {
						fmt.Printf("  %03d %s\n", m.Version, m.Name)
					}
					return nil
				}

				if err := migrator.ApplyPending(); err != nil {
					return fmt.Errorf("applying migrations: %w", err)
				}
				fmt.Println("Database schema is up to date")
				return nil
			})
		},
	}
}
