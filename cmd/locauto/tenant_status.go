package main

import (
	"context"
	"fmt"

	"github.com/locauto/locauto/internal/tenant"
	"github.com/spf13/cobra"
)

var tenantStatusCmd = &cobra.Command{
	Use:   "status <tenant-id> <status>",
	Short: "Set a tenant's status",
	Long:  "Set a tenant's status: active, suspended, pending_payment, pending_verification. Only active tenants may use the API.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTenantStatus,
}

var tenantPlanCmd = &cobra.Command{
	Use:   "plan <tenant-id> <plan>",
	Short: "Set a tenant's subscription plan",
	Long:  "Set a tenant's plan: standard, premium. Document generation requires premium.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTenantPlan,
}

func runTenantStatus(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	ctx := context.Background()

	var status tenant.Status
	switch args[1] {
	case string(tenant.StatusActive):
		status = tenant.StatusActive
	case string(tenant.StatusSuspended):
		status = tenant.StatusSuspended
	case string(tenant.StatusPendingPayment):
		status = tenant.StatusPendingPayment
	case string(tenant.StatusPendingVerification):
		status = tenant.StatusPendingVerification
	default:
		return fmt.Errorf("unknown status %q (active, suspended, pending_payment, pending_verification)", args[1])
	}

	mgr, err := resolveTenantManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.SetStatus(ctx, tenantID, status); err != nil {
		return err
	}

	if tenantJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":     tenantID,
			"status": status,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tenant %q is now %s\n", tenantID, status)
	return nil
}

func runTenantPlan(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	ctx := context.Background()

	var plan tenant.Plan
	switch args[1] {
	case string(tenant.PlanStandard):
		plan = tenant.PlanStandard
	case string(tenant.PlanPremium):
		plan = tenant.PlanPremium
	default:
		return fmt.Errorf("unknown plan %q (standard, premium)", args[1])
	}

	mgr, err := resolveTenantManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.SetPlan(ctx, tenantID, plan); err != nil {
		return err
	}

	if tenantJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":   tenantID,
			"plan": plan,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tenant %q is now on the %s plan\n", tenantID, plan)
	return nil
}
