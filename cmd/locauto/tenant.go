package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/locauto/locauto/internal/config"
	"github.com/locauto/locauto/internal/tenant"
	"github.com/spf13/cobra"
)

var (
	tenantRootOverride string
	tenantJSONOutput   bool
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage rental agency tenants",
	Long:  "Create, list, inspect, and delete agency tenants without running the server.",
}

func init() {
	tenantCmd.PersistentFlags().StringVar(&tenantRootOverride, "root", "",
		"Tenant root path (overrides config and LOCAUTO_TENANTS_ROOT)")
	tenantCmd.PersistentFlags().BoolVar(&tenantJSONOutput, "json", false,
		"Output in JSON format")

	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantInfoCmd)
	tenantCmd.AddCommand(tenantStatusCmd)
	tenantCmd.AddCommand(tenantPlanCmd)
	tenantCmd.AddCommand(tenantDeleteCmd)
}

// resolveTenantManager creates a Manager from config with optional --root override.
func resolveTenantManager() (*tenant.Manager, error) {
	rootPath := tenantRootOverride
	if rootPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		rootPath = cfg.Tenants.RootPath
	}

	return tenant.NewManager(rootPath)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
