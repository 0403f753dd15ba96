package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"

	"github.com/calltime/slate/pkg/saved"
)

// SavedCommand creates the saved command with its subcommands
func SavedCommand() *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "Manage saved searches",
		Commands: []*cli.Command{
			savedListCommand(),
			savedSaveCommand(),
			savedLoadCommand(),
			savedDeleteCommand(),
		},
	}
}

func savedListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved searches visible to you",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listSavedSearches(ctx, c.String("config"))
		},
	}
}

func savedSaveCommand() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save a search for later reuse",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Saved search name (required)",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Optional description",
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query to save",
			},
			&cli.StringFlag{
				Name:  "filters",
				Usage: "Facet filters as a JSON object",
				Value: "{}",
			},
			&cli.StringFlag{
				Name:  "project",
				Usage: "Scope the search to a project ID",
			},
			&cli.BoolFlag{
				Name:  "shared",
				Usage: "Make the search visible to the whole organization",
			},
			&cli.BoolFlag{
				Name:  "pin",
				Usage: "Pin the search to the top of the list",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return saveSavedSearch(ctx, c)
		},
	}
}

func savedLoadCommand() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Load a saved search and show the restored query and filters",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("usage: slate saved load <id>")
			}
			return loadSavedSearch(ctx, c.String("config"), c.Args().First())
		},
	}
}

func savedDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved search",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("usage: slate saved delete <id>")
			}
			return deleteSavedSearch(ctx, c.String("config"), c.Args().First(), c.Bool("yes"))
		},
	}
}

func listSavedSearches(ctx context.Context, configPath string) error {
	cfg, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	manager := saved.NewManager(store)
	searches, err := manager.List(ctx, identityFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("listing saved searches: %w", err)
	}

	if len(searches) == 0 {
		fmt.Println("No saved searches")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Name", "Query", "Visibility", "Uses", "Last Used"})
	for _, s := range searches {
		name := s.Name
		if s.IsPinned {
			name = "📌 " + name
		}
		lastUsed := "never"
		if s.LastUsedAt != nil {
			lastUsed = formatTime(*s.LastUsedAt)
		}
		t.AppendRow(table.Row{s.ID, name, s.Query, string(s.Visibility), s.UsageCount, lastUsed})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	return nil
}

func saveSavedSearch(ctx context.Context, c *cli.Command) error {
	cfg, store, err := openStore(c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	ident := identityFromConfig(cfg)

	s := &saved.SavedSearch{
		Name:           c.String("name"),
		Description:    c.String("description"),
		Query:          c.String("query"),
		FiltersJSON:    c.String("filters"),
		ProjectID:      c.String("project"),
		IsPinned:       c.Bool("pin"),
		CreatedBy:      ident.User,
		CreatedByEmail: ident.Email,
		Organization:   ident.Organization,
	}
	if c.String("project") != "" {
		s.Scope = saved.ScopeProject
	}
	if c.Bool("shared") {
		s.Visibility = saved.VisibilityOrganization
	}

	manager := saved.NewManager(store)
	if err := manager.Save(ctx, s); err != nil {
		if errors.Is(err, saved.ErrBlankName) {
			return fmt.Errorf("a saved search needs a name, use --name")
		}
		return fmt.Errorf("saving search: %w", err)
	}

	fmt.Printf("Saved search %q (%s)\n", s.Name, s.ID)
	return nil
}

func loadSavedSearch(ctx context.Context, configPath, id string) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	manager := saved.NewManager(store)
	loaded, err := manager.Load(ctx, id)
	if err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			return fmt.Errorf("saved search %s not found", id)
		}
		return fmt.Errorf("loading saved search: %w", err)
	}

	fmt.Printf("Name:    %s\n", loaded.Search.Name)
	if loaded.Search.Description != "" {
		fmt.Printf("About:   %s\n", loaded.Search.Description)
	}
	fmt.Printf("Query:   %s\n", loaded.Query)
	fmt.Printf("Filters: %d active\n", loaded.Filters.ActiveCount())

	// The usage bump runs in the background; let it land before the store
	// closes.
	manager.Wait()
	return nil
}

func deleteSavedSearch(ctx context.Context, configPath, id string, skipConfirm bool) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	confirm := func(s *saved.SavedSearch) bool {
		if skipConfirm {
			return true
		}
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete saved search %q? This cannot be undone", s.Name),
			IsConfirm: true,
		}
		_, err := prompt.Run()
		return err == nil
	}

	manager := saved.NewManager(store)
	if err := manager.Delete(ctx, id, confirm); err != nil {
		switch {
		case errors.Is(err, saved.ErrDeclined):
			fmt.Println("Aborted")
			return nil
		case errors.Is(err, saved.ErrNotFound):
			return fmt.Errorf("saved search %s not found", id)
		}
		return fmt.Errorf("deleting saved search: %w", err)
	}

	fmt.Printf("Deleted saved search %s\n", id)
	return nil
}
