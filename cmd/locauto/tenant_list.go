package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tenants",
	Args:  cobra.NoArgs,
	RunE:  runTenantList,
}

func runTenantList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mgr, err := resolveTenantManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	tenants, err := mgr.List(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	sort.Slice(tenants, func(i, j int) bool {
		return tenants[i].ID < tenants[j].ID
	})

	if tenantJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"tenants": tenants,
			"total":   len(tenants),
		})
	}

	if len(tenants) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tenants found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tPLAN\tSTATUS\tSIZE\tCREATED")
	for _, t := range tenants {
		name := t.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			name,
			t.Plan,
			t.Status,
			formatSize(t.SizeBytes),
			t.Created.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()

	return nil
}
