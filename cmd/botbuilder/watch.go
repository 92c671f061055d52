package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
	"github.com/fedorabakumets/telegram-bot-builder/compiler/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <project.json>",
	Short: "Regenerate artifacts whenever the project file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		opts, err := generateOptions(cmd)
		if err != nil {
			return err
		}
		w := &watch.Watcher{
			Path:    args[0],
			Dir:     genFlags.out,
			Options: opts,
			OnResult: func(res *gen.Result) {
				printWarnings(res.Warnings)
				fmt.Fprintf(cmd.OutOrStdout(), "regenerated %d artifacts\n", len(res.Artifacts))
			},
			OnError: func(err error) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			},
		}
		err = w.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	addGenerateFlags(watchCmd)
}
