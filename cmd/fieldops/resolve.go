package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Photo-to-space resolution operations",
}

var resolveRematchCmd = &cobra.Command{
	Use:   "rematch <photo-id>",
	Short: "Recompute the automatic space match for a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		match, err := initCorrelator(st).Rematch(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("photo %s -> %s (confidence %.1f)\n", args[0], match.SpaceID, match.Confidence)
		return nil
	},
}

var overrideNote string

var resolveOverrideCmd = &cobra.Command{
	Use:   "override <photo-id> <space-id>",
	Short: "Manually assign a photo to a space",
	Long:  "Records a worker override. Overrides permanently win over automatic matching.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := initCorrelator(st).ApplyOverride(ctx, args[0], args[1], overrideNote); err != nil {
			return err
		}
		fmt.Printf("photo %s assigned to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	resolveOverrideCmd.Flags().StringVar(&overrideNote, "note", "", "reason for the override")
	resolveCmd.AddCommand(resolveRematchCmd)
	resolveCmd.AddCommand(resolveOverrideCmd)
	rootCmd.AddCommand(resolveCmd)
}
