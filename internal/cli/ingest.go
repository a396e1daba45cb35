package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"agentrag/internal/adapter/extractor"
	"agentrag/internal/adapter/fs"
	"agentrag/internal/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents for a tenant",
	Long: `Ingest documents from the specified directory or file into the tenant's
index. Supported formats: plain text, markdown, CSV. Re-ingesting a file with
the same name replaces its previous chunks atomically.

Examples:
  agentrag ingest ./docs -t acme       # Ingest a directory
  agentrag ingest notes.md -t acme     # Ingest a single file`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	d, err := openDeps(GetConfig())
	if err != nil {
		return err
	}
	defer d.Close()

	var files []fs.FileInfo
	if info.IsDir() {
		walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
		files, err = walker.Walk(path)
		if err != nil {
			return fmt.Errorf("failed to scan directory: %w", err)
		}
	} else {
		files = []fs.FileInfo{{Path: path, Rel: filepath.Base(path), Size: info.Size()}}
	}

	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	fmt.Printf("Ingesting %d files for tenant %q...\n", len(files), tenant)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	concurrency := cfg.Ingest.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	type outcome struct {
		rel    string
		chunks int
		err    error
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan outcome, len(files))

	for _, f := range files {
		sem <- struct{}{}
		go func(f fs.FileInfo) {
			defer func() { <-sem }()

			raw, err := os.ReadFile(f.Path)
			if err != nil {
				results <- outcome{rel: f.Rel, err: err}
				return
			}

			h, err := d.ingestor.Submit(tenant, f.Rel, raw, extractor.FormatForPath(f.Path))
			if err != nil {
				results <- outcome{rel: f.Rel, err: err}
				return
			}
			if err := h.Wait(context.Background()); err != nil {
				results <- outcome{rel: f.Rel, err: err}
				return
			}
			results <- outcome{rel: f.Rel, chunks: h.Chunks()}
		}(f)
	}

	var ingested, totalChunks, skipped int
	var failures []string
	for range files {
		r := <-results
		bar.Add(1)
		switch {
		case errors.Is(r.err, domain.ErrUnsupportedFormat):
			skipped++
		case r.err != nil:
			failures = append(failures, fmt.Sprintf("%s: %v", r.rel, r.err))
		default:
			ingested++
			totalChunks += r.chunks
		}
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files ingested: %d\n", ingested)
	fmt.Printf("  Chunks created: %d\n", totalChunks)
	if skipped > 0 {
		fmt.Printf("  Files skipped:  %d (unsupported format)\n", skipped)
	}
	if len(failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
	}

	return nil
}
