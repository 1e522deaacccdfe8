package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var tenantInfoCmd = &cobra.Command{
	Use:   "info <tenant-id>",
	Short: "Show detailed information about a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantInfo,
}

func runTenantInfo(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	ctx := context.Background()

	mgr, err := resolveTenantManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	managed, err := mgr.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	dbPath := filepath.Join(managed.BasePath, "locauto.db")
	var sizeBytes int64
	if info, statErr := os.Stat(dbPath); statErr == nil {
		sizeBytes = info.Size()
	}

	out := cmd.OutOrStdout()

	if tenantJSONOutput {
		return printJSON(out, map[string]any{
			"id":            managed.ID,
			"name":          managed.Meta.Name,
			"plan":          managed.Plan(),
			"status":        managed.Status(),
			"created":       managed.Meta.Created,
			"last_accessed": managed.Meta.LastAccessed,
			"size_bytes":    sizeBytes,
			"path":          managed.BasePath,
		})
	}

	fmt.Fprintf(out, "Tenant:        %s\n", managed.ID)
	if managed.Meta.Name != "" {
		fmt.Fprintf(out, "Name:          %s\n", managed.Meta.Name)
	}
	fmt.Fprintf(out, "Plan:          %s\n", managed.Plan())
	fmt.Fprintf(out, "Status:        %s\n", managed.Status())
	fmt.Fprintf(out, "Created:       %s\n", managed.Meta.Created.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Last Accessed: %s\n", managed.Meta.LastAccessed.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Size:          %s\n", formatSize(sizeBytes))
	fmt.Fprintf(out, "Path:          %s\n", managed.BasePath)

	return nil
}
