package main

import (
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/Sternrassler/geo-enrich/pkg/store"
	"github.com/spf13/cobra"
)

var seedOutput string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the default city list",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.InputFile
		if cmd.Flags().Changed("output") {
			path = seedOutput
		}
		return writeSeed(path)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedOutput, "output", "o", "", "file to write (default: INPUT_FILE)")
	rootCmd.AddCommand(seedCmd)
}

func writeSeed(path string) error {
	if err := store.SaveEntities(path, store.DefaultCities); err != nil {
		return err
	}
	logger := logging.NewLogger("geofetch")
	logger.Info().
		Str("path", path).
		Int("entities", len(store.DefaultCities)).
		Msg("City list saved")
	return nil
}
