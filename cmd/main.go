package main

import (
	"os"

	"gitlab.com/nqueens.net/internal/cli"
	logger2 "gitlab.com/nqueens.net/internal/global/logger"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger2.Error("nqueens failed", "error", err)
		_ = logger2.Logger().Sync()
		os.Exit(1)
	}
}
