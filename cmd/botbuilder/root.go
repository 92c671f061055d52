package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "botbuilder",
	Short:         "Compile bot-editor projects into runnable Telegram bots",
	Long:          "botbuilder turns a visual editor's project export into a runnable\nTelegram bot program with its dependency manifest, container\ndescriptor, run configuration and command list.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(generateCmd, validateCmd, watchCmd, versionCmd)
}
