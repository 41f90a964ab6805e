package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/meghashyamc/facetsearch/db/kvdb"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/services/index"
	"github.com/meghashyamc/facetsearch/validation"
	"github.com/spf13/cobra"
)

var snapshotFile string

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Make the index match a JSON snapshot of all projects",
	Long: `Reads a JSON array of projects and rebuilds the index from it.
Unchanged projects are skipped and projects missing from the snapshot are removed.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().StringVarP(&snapshotFile, "file", "f", "", "path to the JSON snapshot of projects")
	_ = reindexCmd.MarkFlagRequired("file")
}

func runReindex(cmd *cobra.Command, args []string) error {
	log := logger.New(cfg.GetLogLevel())

	projects, err := readSnapshot(snapshotFile)
	if err != nil {
		return err
	}

	kvDB, err := kvdb.New(log, cfg)
	if err != nil {
		return fmt.Errorf("could not open kvDB: %w", err)
	}
	defer kvDB.Close()

	searchDB, err := searchdb.New(log, cfg)
	if err != nil {
		return fmt.Errorf("could not open searchDB: %w", err)
	}
	defer searchDB.Close()

	validator, err := validation.New(log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	indexService := index.New(ctx, log, searchDB, kvDB, validator)

	summary, err := indexService.Rebuild(ctx, projects, uuid.New().String())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Printf("indexed: %d, unchanged: %d, invalid: %d, deleted: %d\n", summary.Indexed, summary.Unchanged, summary.Invalid, summary.Deleted)
	return nil
}

func readSnapshot(path string) ([]searchdb.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot: %w", err)
	}

	var projects []searchdb.Document
	if err := json.Unmarshal(content, &projects); err != nil {
		return nil, fmt.Errorf("could not parse snapshot %s: %w", path, err)
	}
	return projects, nil
}
