package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteTenantAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete [document-name]",
	Short: "Delete a document or all tenant data",
	Long: `Delete a single document (and its chunks and vectors) by name, or the
tenant's entire data set with --all.

Examples:
  agentrag delete -t acme notes.md
  agentrag delete -t acme --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteTenantAll, "all", false, "delete all data for the tenant")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deleteTenantAll == (len(args) > 0) {
		return fmt.Errorf("specify either a document name or --all")
	}

	d, err := openDeps(GetConfig())
	if err != nil {
		return err
	}
	defer d.Close()

	if deleteTenantAll {
		if err := d.ingestor.DeleteTenant(tenant); err != nil {
			return fmt.Errorf("failed to delete tenant data: %w", err)
		}
		fmt.Printf("Deleted all data for tenant %q.\n", tenant)
		return nil
	}

	name := args[0]
	doc, found, err := d.store.FindDocumentByName(tenant, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("document %q not found for tenant %q", name, tenant)
	}

	if err := d.ingestor.DeleteDocument(tenant, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	fmt.Printf("Deleted %q (%s).\n", name, doc.ID)
	return nil
}
