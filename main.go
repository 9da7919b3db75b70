package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dfsoundsense/soundsense-go/cmd"
	"github.com/dfsoundsense/soundsense-go/internal/conf"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init("logs")
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
