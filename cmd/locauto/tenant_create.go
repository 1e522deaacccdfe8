package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/locauto/locauto/internal/tenant"
	"github.com/spf13/cobra"
)

var (
	createName        string
	createPlan        string
	createIfNotExists bool
)

var tenantCreateCmd = &cobra.Command{
	Use:   "create <tenant-id>",
	Short: "Create a new tenant",
	Long:  "Create a new agency tenant with the given ID. Tenant IDs are lowercase alphanumeric with hyphens.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantCreate,
}

func init() {
	tenantCreateCmd.Flags().StringVar(&createName, "name", "",
		"Agency display name")
	tenantCreateCmd.Flags().StringVar(&createPlan, "plan", "",
		"Subscription plan: standard, premium (default: standard)")
	tenantCreateCmd.Flags().BoolVar(&createIfNotExists, "if-not-exists", false,
		"Exit 0 if tenant already exists")
}

func runTenantCreate(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	ctx := context.Background()

	plan := tenant.PlanStandard
	switch createPlan {
	case "", string(tenant.PlanStandard):
	case string(tenant.PlanPremium):
		plan = tenant.PlanPremium
	default:
		return fmt.Errorf("unknown plan %q (standard, premium)", createPlan)
	}

	mgr, err := resolveTenantManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	managed, err := mgr.Create(ctx, tenantID, createName)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantAlreadyExists) && createIfNotExists {
			existing, loadErr := mgr.Get(ctx, tenantID)
			if loadErr != nil {
				return fmt.Errorf("tenant exists but could not be loaded: %w", loadErr)
			}
			if tenantJSONOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":              existing.ID,
					"plan":            existing.Plan(),
					"status":          existing.Status(),
					"already_existed": true,
				})
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Tenant %q already exists (plan: %s)\n", tenantID, existing.Plan())
			return nil
		}
		return err
	}

	if plan != tenant.PlanStandard {
		if err := mgr.SetPlan(ctx, tenantID, plan); err != nil {
			return err
		}
	}

	if tenantJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      managed.ID,
			"name":    createName,
			"plan":    plan,
			"created": managed.Meta.Created,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created tenant %q (plan: %s)\n", managed.ID, plan)
	return nil
}
