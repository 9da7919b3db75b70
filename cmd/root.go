// Package cmd wires the cobra root command: flag parsing, config-file
// discovery via viper, and handing off to the engine.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dfsoundsense/soundsense-go/cmd/config"
	"github.com/dfsoundsense/soundsense-go/cmd/version"
	"github.com/dfsoundsense/soundsense-go/internal/conf"
	"github.com/dfsoundsense/soundsense-go/internal/engine"
)

// RootCommand builds the soundsense-go CLI.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "soundsense-go",
		Short: "Pattern-driven sound engine for text-adventure game logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return engine.Run(settings)
		},
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		return nil
	}

	rootCmd.AddCommand(version.Command())
	rootCmd.AddCommand(config.Command())

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().StringVarP(&settings.Paths.Gamelog, "gamelog", "l",
		viper.GetString("paths.gamelog"), "Path to the game's log file")
	rootCmd.PersistentFlags().StringVarP(&settings.Paths.Soundpack, "soundpack", "p",
		viper.GetString("paths.soundpack"), "Path to the soundpack directory")
	rootCmd.PersistentFlags().StringVarP(&settings.Paths.Ignore, "ignore", "i",
		viper.GetString("paths.ignore"), "Path to the ignore-pattern list")
	rootCmd.PersistentFlags().BoolVar(&settings.Paths.NoConfig, "no-config",
		viper.GetBool("paths.noconfig"), "Set paths.noconfig (default-paths.ini is not read whether or not this is set)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
