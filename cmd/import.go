package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v3"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/log"
	"github.com/calltime/slate/pkg/storage"
)

const importBatchSize = 500

// ImportCommand creates the import command
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import record exports into the local index",
		ArgsUsage: "<file.jsonl | file.jsonl.zst> [...]",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("usage: slate import <file.jsonl> [...]")
			}
			return importFiles(ctx, c.String("config"), c.Args().Slice())
		},
	}
}

func importFiles(ctx context.Context, configPath string, paths []string) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	totalAccepted, totalSkipped := 0, 0
	for _, path := range paths {
		accepted, skipped, err := importFile(ctx, store, path)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		fmt.Printf("%s: %d records imported, %d skipped\n", path, accepted, skipped)
		totalAccepted += accepted
		totalSkipped += skipped
	}

	if len(paths) > 1 {
		fmt.Printf("Total: %d records imported, %d skipped\n", totalAccepted, totalSkipped)
	}
	return nil
}

// importFile reads one export file line by line. Each line is a JSON record
// in the backend wire shape; lines that fail to parse are counted and
// skipped, never aborting the import.
func importFile(ctx context.Context, store *storage.Store, path string) (accepted, skipped int, err error) {
	logger := log.ForComponent("import")

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, zerr := zstd.NewReader(f)
		if zerr != nil {
			return 0, 0, fmt.Errorf("opening zstd stream: %w", zerr)
		}
		defer zr.Close()
		reader = zr
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	batch := make([]map[string]any, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		results := core.Normalize(batch)
		if err := store.StoreRecords(ctx, results); err != nil {
			return err
		}
		accepted += len(results)
		skipped += len(batch) - len(results)
		batch = batch[:0]
		return nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			logger.Warnf("%s:%d: skipping malformed record: %v", path, lineNo, err)
			skipped++
			continue
		}
		if id, ok := record["id"].(string); !ok || id == "" {
			record["id"] = uuid.NewString()
		}

		batch = append(batch, record)
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return accepted, skipped, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return accepted, skipped, err
	}
	if err := flush(); err != nil {
		return accepted, skipped, err
	}

	return accepted, skipped, nil
}
