package main

import (
	"os"

	_ "portkeeper/cmd"
	"portkeeper/cmd/root"
	"portkeeper/internal/config"
	"portkeeper/internal/logger"
)

func main() {
	// The daemon logs to file plus console; one-shot CLI commands log
	// to console only.
	isServerMode := len(os.Args) > 1 && os.Args[1] == "server"

	logPath := ""
	if isServerMode {
		logPath = config.Config.Log.Path
	}
	logger.Init(config.Config.Log.Level, logPath, true)

	if err := root.RootCmd.Execute(); err != nil {
		logger.Fatal(err)
	}
	os.Exit(0)
}
