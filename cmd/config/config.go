// Package config implements the "config" subcommand, which persists a
// single dotted setting into the on-disk config.yaml without disturbing
// anything else in the file.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfsoundsense/soundsense-go/internal/conf"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "config <key> <value>",
		Short: "Persist a single setting (e.g. paths.soundpack) into config.yaml",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := conf.FindConfigFile()
			if err != nil {
				return err
			}
			if err := conf.UpdateConfigFile(path, map[string]string{args[0]: args[1]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s in %s\n", args[0], path)
			return nil
		},
	}
}
