package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/search"
)

// Define styles using lipgloss
var (
	resultTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))

	kindStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	snippetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Margin(0, 0, 0, 3)

	countsStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32")).
			Margin(1, 0, 0, 0)

	noResultsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

var kindCaser = cases.Title(language.English)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search indexed records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Full-text search query",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Restrict to one record kind (project, asset, comment, message, callsheet, brief, task)",
			},
			&cli.StringSliceFlag{
				Name:  "asset-type",
				Usage: "Filter by asset type. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "resolution",
				Usage: "Filter by resolution. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "frame-rate",
				Usage: "Filter by frame rate. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "codec",
				Usage: "Filter by codec. Can be used multiple times",
			},
			&cli.StringFlag{
				Name:  "transcript",
				Usage: "Require transcript presence: true or false",
			},
			&cli.StringFlag{
				Name:  "start-date",
				Usage: "Creation date range start (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "Creation date range end (YYYY-MM-DD, inclusive)",
			},
			&cli.StringFlag{
				Name:  "min-duration",
				Usage: "Minimum media duration in seconds",
			},
			&cli.StringFlag{
				Name:  "max-duration",
				Usage: "Maximum media duration in seconds",
			},
			&cli.StringFlag{
				Name:  "min-size",
				Usage: "Minimum file size in bytes",
			},
			&cli.StringFlag{
				Name:  "max-size",
				Usage: "Maximum file size in bytes",
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Free-text attribute match (scene labels, shot types)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 30,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchRecords(ctx, c)
		},
	}
}

// searchRecords runs a one-shot search against the local index
func searchRecords(ctx context.Context, c *cli.Command) error {
	params, err := search.ParseParams(searchQueryValues(c))
	if err != nil {
		return err
	}

	_, store, err := openStore(c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	svc := search.NewService(store)
	results, err := svc.Search(ctx, params)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	fmt.Print(renderResults(results))
	return nil
}

// searchQueryValues maps CLI flags onto the same parameter names the HTTP
// API uses, so both front ends share one parser.
func searchQueryValues(c *cli.Command) map[string][]string {
	values := make(map[string][]string)

	setSingle := func(param, flag string) {
		if v := c.String(flag); v != "" {
			values[param] = []string{v}
		}
	}
	setMulti := func(param, flag string) {
		if v := c.StringSlice(flag); len(v) > 0 {
			values[param] = v
		}
	}

	setSingle("q", "query")
	setSingle("kind", "kind")
	setMulti("asset_type", "asset-type")
	setMulti("resolution", "resolution")
	setMulti("frame_rate", "frame-rate")
	setMulti("codec", "codec")
	setSingle("transcript", "transcript")
	setSingle("start_date", "start-date")
	setSingle("end_date", "end-date")
	setSingle("min_duration", "min-duration")
	setSingle("max_duration", "max-duration")
	setSingle("min_size", "min-size")
	setSingle("max_size", "max-size")
	setSingle("label", "label")
	values["limit"] = []string{fmt.Sprintf("%d", c.Int("limit"))}

	return values
}

func renderResults(results *search.Results) string {
	var output strings.Builder

	if len(results.Results) == 0 {
		output.WriteString(noResultsStyle.Render("No results found"))
		output.WriteString("\n")
		return output.String()
	}

	for i, r := range results.Results {
		display := r.Kind.Display()
		header := fmt.Sprintf("%d. %s %s %s",
			i+1,
			display.Icon,
			kindStyle.Render(kindCaser.String(string(r.Kind))),
			resultTitleStyle.Render(r.Title))
		output.WriteString(header)
		output.WriteString("\n")

		meta := []string{}
		if r.ProjectName != "" {
			meta = append(meta, r.ProjectName)
		}
		if !r.CreatedAt.IsZero() {
			meta = append(meta, formatTime(r.CreatedAt))
		}
		if r.Attrs.Resolution != "" {
			meta = append(meta, r.Attrs.Resolution)
		}
		if r.Attrs.DurationSeconds > 0 {
			meta = append(meta, formatMediaDuration(r.Attrs.DurationSeconds))
		}
		if r.Attrs.FileSizeBytes > 0 {
			meta = append(meta, formatBytes(r.Attrs.FileSizeBytes))
		}
		if len(meta) > 0 {
			output.WriteString("   " + metaStyle.Render(strings.Join(meta, " · ")))
			output.WriteString("\n")
		}

		if len(r.Highlights) > 0 {
			output.WriteString(snippetStyle.Render(stripMarks(r.Highlights[0])))
			output.WriteString("\n")
		} else if r.Description != "" {
			output.WriteString(snippetStyle.Render(truncate(r.Description, 120)))
			output.WriteString("\n")
		}
	}

	counts := make([]string, 0, len(results.Counts))
	for _, kind := range []core.Kind{core.KindProject, core.KindAsset, core.KindBrief, core.KindCallsheet, core.KindTask, core.KindComment, core.KindMessage, core.KindUnknown} {
		if n, ok := results.Counts[kind]; ok && n > 0 {
			counts = append(counts, fmt.Sprintf("%s %s", formatNumber(n), kind.Display().Label))
		}
	}
	summary := fmt.Sprintf("%d shown", results.Total)
	if len(counts) > 0 {
		summary += " · " + strings.Join(counts, ", ")
	}
	output.WriteString(countsStyle.Render(summary))
	output.WriteString("\n")

	return output.String()
}

// stripMarks removes the <mark> highlight tags the store embeds in snippets.
func stripMarks(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	return strings.ReplaceAll(s, "</mark>", "")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
