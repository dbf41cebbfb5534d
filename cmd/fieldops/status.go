package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitewatch/fieldops/internal/rollup"
)

var statusBuilding string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a building's activity summary",
	Long:  "Aggregates the last 30 days of work records and prints completion stats, a category breakdown, and per-space photo counts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		now := time.Now()
		from := now.AddDate(0, 0, -30)
		records, warnings := initAggregator(st).Aggregate(ctx, statusBuilding, from, now)

		summary := rollup.Stats(records, now)
		breakdown := rollup.Group(records)

		fmt.Printf("=== Activity: %s (last 30 days) ===\n", statusBuilding)
		fmt.Printf("Total completions:  %d\n", summary.TotalCompletions)
		fmt.Printf("Today:              %d\n", summary.CompletionsToday)
		fmt.Printf("This week:          %d\n", summary.CompletionsThisWeek)
		fmt.Printf("Verification rate:  %.1f%%\n", summary.VerificationRate)
		fmt.Println()

		if len(breakdown.ByWorkType) > 0 {
			fmt.Println("By work type:")
			for workType, count := range breakdown.ByWorkType {
				fmt.Printf("  %-15s %d\n", workType, count)
			}
			fmt.Println()
		}

		stats, err := initCorrelator(st).SpaceStats(ctx, statusBuilding)
		if err != nil {
			return err
		}
		if len(stats) > 0 {
			fmt.Println("Photos by space:")
			for _, s := range stats {
				last := "-"
				if s.LastPhotoAt != nil {
					last = s.LastPhotoAt.Format(time.RFC3339)
				}
				fmt.Printf("  %-20s %-5d last: %s\n", s.SpaceID, s.PhotoCount, last)
			}
			fmt.Println()
		}

		for _, w := range warnings {
			fmt.Printf("warning: %v\n", w)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusBuilding, "building", "b", "", "building id")
	_ = statusCmd.MarkFlagRequired("building")
	rootCmd.AddCommand(statusCmd)
}
