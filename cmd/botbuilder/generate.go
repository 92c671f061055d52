package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
	"github.com/fedorabakumets/telegram-bot-builder/store"
)

var genFlags struct {
	out         string
	botName     string
	persistence bool
	verbose     bool
	columns     int
	dotenv      bool
	options     string
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&genFlags.out, "out", "o", "dist", "output directory for generated artifacts")
	cmd.Flags().StringVar(&genFlags.botName, "name", "", "bot display name embedded in the program")
	cmd.Flags().BoolVar(&genFlags.persistence, "persistence", false, "enable the durable per-user store")
	cmd.Flags().BoolVar(&genFlags.verbose, "comments", false, "interleave explanatory comments in the program")
	cmd.Flags().IntVar(&genFlags.columns, "columns", 0, "fixed keyboard column count (0 = heuristic)")
	cmd.Flags().BoolVar(&genFlags.dotenv, "dotenv", false, "load BOT_TOKEN from a .env file at startup")
	cmd.Flags().StringVar(&genFlags.options, "options", "", "YAML file with generation settings (flags win)")
	cmd.Flags().BoolVar(&storeFlags.fromStore, "from-store", false, "treat the argument as a project id in the store")
	cmd.Flags().StringVar(&storeFlags.dialect, "dialect", string(store.SQLite), "store dialect: sqlite, mysql or postgres")
	cmd.Flags().StringVar(&storeFlags.dsn, "db", "projects.db", "store connection string")
}

// generateOptions builds the option list from the options file, if
// any, with explicitly set flags applied on top.
func generateOptions(cmd *cobra.Command) ([]gen.Option, error) {
	var opts []gen.Option
	if genFlags.options != "" {
		fileOpts, err := readOptionsFile(genFlags.options)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}
	changed := cmd.Flags().Changed
	if changed("persistence") || genFlags.options == "" {
		opts = append(opts, gen.WithPersistence(genFlags.persistence))
	}
	if changed("comments") || genFlags.options == "" {
		opts = append(opts, gen.WithVerboseComments(genFlags.verbose))
	}
	if genFlags.botName != "" {
		opts = append(opts, gen.WithBotName(genFlags.botName))
	}
	if genFlags.columns > 0 {
		opts = append(opts, gen.WithKeyboardColumns(genFlags.columns))
	}
	if genFlags.dotenv {
		opts = append(opts, gen.WithFeatures(gen.FeatureDotenv))
	}
	return opts, nil
}

func printWarnings(warnings []gen.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate <project.json>",
	Short: "Generate the bot program and deployment artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := buildProject(cmd, args[0], genFlags.out)
		if err != nil {
			return err
		}
		printWarnings(res.Warnings)
		if res.Report != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d artifacts from %d nodes (%d commands)\n",
				len(res.Artifacts), res.Report.Nodes, res.Report.Commands)
		}
		return nil
	},
}

func buildProject(cmd *cobra.Command, arg, out string) (*gen.Result, error) {
	res, err := generateProject(cmd, arg)
	if err != nil {
		return nil, err
	}
	if _, err := gen.WriteResult(cmd.Context(), out, res); err != nil {
		return nil, err
	}
	return res, nil
}

func init() {
	addGenerateFlags(generateCmd)
}
