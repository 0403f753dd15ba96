package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/calltime/slate/pkg/core"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show index statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(c.String("config"))
		},
	}
}

func showStats(configPath string) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Total records", formatNumber(stats.TotalRecords)})

	for _, kind := range []core.Kind{core.KindProject, core.KindAsset, core.KindBrief, core.KindCallsheet, core.KindTask, core.KindComment, core.KindMessage, core.KindUnknown} {
		if n, ok := stats.ByKind[kind]; ok && n > 0 {
			t.AppendRow(table.Row{fmt.Sprintf("  %s %ss", kind.Display().Icon, kind.Display().Label), formatNumber(n)})
		}
	}

	t.AppendRow(table.Row{"Saved searches", formatNumber(stats.SavedSearches)})
	if stats.OldestRecord != nil {
		t.AppendRow(table.Row{"Oldest record", formatTime(*stats.OldestRecord)})
	}
	if stats.NewestRecord != nil {
		t.AppendRow(table.Row{"Newest record", formatTime(*stats.NewestRecord)})
	}

	t.SetStyle(table.StyleLight)
	t.Render()

	return nil
}
