package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/internal/parquet"
	"github.com/will-wright-eng/social-signals/schema"
)

// ExportedFile describes one Parquet file written by an export.
type ExportedFile struct {
	Path string
	Rows int
}

// ExportParquet writes every stored record to <outputFile>.repositories.parquet.
// When run history is enabled and non-empty it also writes the runs and run paths.
func ExportParquet(ctx context.Context, metrics contract.MetricsStore, runs contract.RunStore, outputFile string) ([]ExportedFile, error) {
	if outputFile == "" {
		return nil, errors.New("--output-file is required for export command")
	}

	records, err := metrics.ListAll(ctx, schema.SortPath, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve repository records: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("no repository records found to export")
	}

	var written []ExportedFile
	repoFile := outputFile + ".repositories.parquet"
	if err := parquet.WriteRepositoriesParquet(parquet.ConvertRepositories(records), repoFile); err != nil {
		return nil, fmt.Errorf("failed to write repositories: %w", err)
	}
	written = append(written, ExportedFile{Path: repoFile, Rows: len(records)})

	if runs == nil {
		return written, nil
	}
	allRuns, err := runs.GetAllRuns(ctx)
	if err != nil {
		return written, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	if len(allRuns) == 0 {
		return written, nil
	}
	runPaths, err := runs.GetAllRunPaths(ctx)
	if err != nil {
		return written, fmt.Errorf("failed to retrieve run paths: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRuns(allRuns), runsFile); err != nil {
		return written, fmt.Errorf("failed to write runs: %w", err)
	}
	written = append(written, ExportedFile{Path: runsFile, Rows: len(allRuns)})

	pathsFile := outputFile + ".run_paths.parquet"
	if err := parquet.WriteRunPathsParquet(parquet.ConvertRunPaths(runPaths), pathsFile); err != nil {
		return written, fmt.Errorf("failed to write run paths: %w", err)
	}
	written = append(written, ExportedFile{Path: pathsFile, Rows: len(runPaths)})

	return written, nil
}
