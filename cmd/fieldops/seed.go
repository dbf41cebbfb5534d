package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sitewatch/fieldops/internal/model"
)

var seedSpacesCmd = &cobra.Command{
	Use:   "seed-spaces <file>",
	Short: "Load building space definitions from a JSON file",
	Long:  "Upserts building spaces (rooms, zones, geofences) from a JSON array of space objects.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "seed-spaces: read %s", args[0])
		}
		var spaces []model.BuildingSpace
		if err := json.Unmarshal(raw, &spaces); err != nil {
			return eris.Wrapf(err, "seed-spaces: parse %s", args[0])
		}
		for _, sp := range spaces {
			if sp.ID == "" || sp.BuildingID == "" {
				return eris.Errorf("seed-spaces: space %q missing id or building id", sp.Name)
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SeedSpaces(ctx, spaces); err != nil {
			return err
		}
		fmt.Printf("seeded %d spaces\n", len(spaces))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedSpacesCmd)
}
