package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tenant document statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDeps(GetConfig())
	if err != nil {
		return err
	}
	defer d.Close()

	stats, err := d.store.TenantStats(tenant)
	if err != nil {
		return fmt.Errorf("failed to read tenant stats: %w", err)
	}

	vectors, err := d.index.Count(tenant)
	if err != nil {
		return fmt.Errorf("failed to read vector count: %w", err)
	}

	fmt.Printf("Tenant: %s\n", tenant)
	fmt.Printf("  Documents:     %d\n", stats.Documents)
	fmt.Printf("  Chunks:        %d\n", stats.Chunks)
	fmt.Printf("  Vectors:       %d\n", vectors)
	fmt.Printf("  Conversations: %d\n", stats.Conversations)
	fmt.Printf("  Embedding:     %s (dim %d)\n", d.embedder.ModelVersion(), d.embedder.Dimension())

	if len(stats.Files) > 0 {
		fmt.Println("\nDocuments:")
		for _, f := range stats.Files {
			fmt.Printf("  - %s\n", f)
		}
	}

	return nil
}
