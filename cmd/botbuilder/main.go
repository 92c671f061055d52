// Command botbuilder compiles visual bot-editor projects into runnable
// Telegram bot programs.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
