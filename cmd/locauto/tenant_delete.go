package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/locauto/locauto/internal/tenant"
	"github.com/spf13/cobra"
)

var deleteForce bool

var tenantDeleteCmd = &cobra.Command{
	Use:   "delete <tenant-id>",
	Short: "Delete a tenant and all its data",
	Long:  "Permanently delete a tenant directory including its database and metadata. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantDelete,
}

func init() {
	tenantDeleteCmd.Flags().BoolVar(&deleteForce, "force", false,
		"Skip confirmation prompt")
}

func runTenantDelete(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	ctx := context.Background()

	if err := tenant.ValidateTenantID(tenantID); err != nil {
		return err
	}

	mgr, err := resolveTenantManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	if !deleteForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "WARNING: This will permanently delete tenant %q and all its data.\n", tenantID)
		fmt.Fprint(errOut, "Type the tenant ID to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		if strings.TrimSpace(input) != tenantID {
			fmt.Fprintln(errOut, "Aborted. Tenant ID did not match.")
			return nil
		}
	}

	if err := mgr.Delete(ctx, tenantID); err != nil {
		return err
	}

	if tenantJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      tenantID,
			"deleted": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted tenant %q\n", tenantID)
	return nil
}
