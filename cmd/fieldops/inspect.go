package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sitewatch/fieldops/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Monthly inspection operations",
}

func parsePeriod(s string) (model.Period, error) {
	if s == "" {
		return model.PeriodOf(time.Now()), nil
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return model.Period{}, eris.Errorf("inspect: period %q not in YYYY-MM form", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return model.Period{}, eris.Wrapf(err, "inspect: parse year %q", parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.Period{}, eris.Wrapf(err, "inspect: parse month %q", parts[1])
	}
	p := model.Period{Year: year, Month: month}
	if !p.Valid() {
		return model.Period{}, eris.Errorf("inspect: invalid period %s", p)
	}
	return p, nil
}

var (
	inspectBuilding string
	inspectPeriod   string
)

var inspectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a building's checklist for a month, creating it on first access",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		period, err := parsePeriod(inspectPeriod)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := initInspection(st)
		if err != nil {
			return err
		}
		checklist, err := svc.GetOrCreateInspection(ctx, inspectBuilding, period)
		if err != nil {
			return err
		}

		fmt.Printf("=== Inspection %s / %s ===\n", checklist.BuildingID, checklist.Period)
		fmt.Printf("Checklist:  %s\n", checklist.ID)
		fmt.Printf("Status:     %s\n", checklist.Status)
		if checklist.InspectorName != "" {
			fmt.Printf("Inspector:  %s\n", checklist.InspectorName)
		}
		if checklist.InspectionDate != nil {
			fmt.Printf("Inspected:  %s\n", checklist.InspectionDate.Format(time.RFC3339))
		}
		fmt.Printf("Next due:   %s\n", checklist.NextInspectionDate.Format("2006-01-02"))
		fmt.Println()
		for _, item := range checklist.Items {
			fmt.Printf("  [%-14s] %-12s %s  (%s)\n", item.Status, item.Category, item.Title, item.ID)
			if item.Notes != "" {
				fmt.Printf("      %s\n", item.Notes)
			}
		}
		return nil
	},
}

var (
	itemChecklist string
	itemStatus    string
	itemNotes     string
	itemSeverity  string
)

var inspectItemCmd = &cobra.Command{
	Use:   "item <item-id>",
	Short: "Set a checklist item's status",
	Long:  "Marks an item passed, failed, pending, or not_applicable. Failing an item also files an issue against it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := initInspection(st)
		if err != nil {
			return err
		}

		if model.ItemStatus(itemStatus) == model.ItemFailed {
			checklist, issue, err := svc.FailItem(ctx, itemChecklist, args[0], itemNotes, model.IssueSeverity(itemSeverity))
			if err != nil {
				return err
			}
			fmt.Printf("checklist %s now %s; filed issue %s (%s)\n",
				checklist.ID, checklist.Status, issue.ID, issue.Severity)
			return nil
		}

		checklist, err := svc.UpdateChecklistItem(ctx, itemChecklist, args[0], model.ItemStatus(itemStatus), itemNotes)
		if err != nil {
			return err
		}
		fmt.Printf("checklist %s now %s\n", checklist.ID, checklist.Status)
		return nil
	},
}

var inspectIssueCmd = &cobra.Command{
	Use:   "issue <issue-id> <status>",
	Short: "Advance an issue through its lifecycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := initInspection(st)
		if err != nil {
			return err
		}
		issue, err := svc.AdvanceIssue(ctx, args[0], model.IssueStatus(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("issue %s now %s\n", issue.ID, issue.Status)
		return nil
	},
}

func init() {
	inspectShowCmd.Flags().StringVarP(&inspectBuilding, "building", "b", "", "building id")
	inspectShowCmd.Flags().StringVar(&inspectPeriod, "period", "", "month as YYYY-MM (default current)")
	_ = inspectShowCmd.MarkFlagRequired("building")

	inspectItemCmd.Flags().StringVar(&itemChecklist, "checklist", "", "checklist id")
	inspectItemCmd.Flags().StringVar(&itemStatus, "status", "", "passed, failed, pending, or not_applicable")
	inspectItemCmd.Flags().StringVar(&itemNotes, "notes", "", "inspector notes")
	inspectItemCmd.Flags().StringVar(&itemSeverity, "severity", "medium", "issue severity when failing")
	_ = inspectItemCmd.MarkFlagRequired("checklist")
	_ = inspectItemCmd.MarkFlagRequired("status")

	inspectCmd.AddCommand(inspectShowCmd)
	inspectCmd.AddCommand(inspectItemCmd)
	inspectCmd.AddCommand(inspectIssueCmd)
	rootCmd.AddCommand(inspectCmd)
}
