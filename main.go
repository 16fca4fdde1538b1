// main is the entry point for the sosig CLI.
package main

import (
	"os"

	"github.com/will-wright-eng/social-signals/cmd"
	"github.com/will-wright-eng/social-signals/internal/contract"
)

func main() {
	err := cmd.Execute()
	if closeErr := cmd.Shutdown(); closeErr != nil {
		contract.LogWarn("Failed to close stores", closeErr)
	}
	if err != nil {
		contract.Logger().Error("Command failed", "err", err)
		os.Exit(1)
	}
}
