package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
)

// generateProject compiles without writing anything to disk. The
// argument is a file path, or a project id with --from-store.
func generateProject(cmd *cobra.Command, arg string) (*gen.Result, error) {
	p, err := loadProject(cmd.Context(), arg)
	if err != nil {
		return nil, err
	}
	opts, err := generateOptions(cmd)
	if err != nil {
		return nil, err
	}
	return gen.Generate(p, opts...)
}

var validateCmd = &cobra.Command{
	Use:   "validate <project.json>",
	Short: "Check a project for structural defects without generating files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := generateProject(cmd, args[0])
		if err != nil {
			return err
		}
		printWarnings(res.Warnings)
		if len(res.Warnings) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "project is valid with %d warnings\n", len(res.Warnings))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "project is valid")
		}
		return nil
	},
}

func init() {
	addGenerateFlags(validateCmd)
	// validate shares the generation flags so warnings match what
	// generate would produce; the --out flag is ignored.
}
