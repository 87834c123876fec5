package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCommand = &cobra.Command{
	Use:           "postsapi",
	Short:         "social posts REST API",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCommand.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
