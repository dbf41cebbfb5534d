package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	aggregateBuilding string
	aggregateFrom     string
	aggregateTo       string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Dump the merged activity ledger for a time window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		from, err := time.Parse(time.RFC3339, aggregateFrom)
		if err != nil {
			return eris.Wrap(err, "aggregate: parse --from")
		}
		to := time.Now()
		if aggregateTo != "" {
			to, err = time.Parse(time.RFC3339, aggregateTo)
			if err != nil {
				return eris.Wrap(err, "aggregate: parse --to")
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		records, warnings := initAggregator(st).Aggregate(ctx, aggregateBuilding, from, to)

		for _, rec := range records {
			verified := " "
			if rec.Verified() {
				verified = "*"
			}
			fmt.Printf("%s %s  %-12s %-11s %s\n",
				verified,
				rec.CompletedAt.Format(time.RFC3339),
				rec.WorkType,
				rec.Status,
				rec.Title,
			)
		}
		fmt.Printf("%d records\n", len(records))
		for _, w := range warnings {
			fmt.Printf("warning: %v\n", w)
		}
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateBuilding, "building", "b", "", "building id")
	aggregateCmd.Flags().StringVar(&aggregateFrom, "from", "", "window start (RFC3339)")
	aggregateCmd.Flags().StringVar(&aggregateTo, "to", "", "window end (RFC3339, default now)")
	_ = aggregateCmd.MarkFlagRequired("building")
	_ = aggregateCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(aggregateCmd)
}
