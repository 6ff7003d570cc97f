package main

import (
	"log/slog"

	"github.com/mistweaverco/selfupdate/cmd/selfupdate"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/log"
	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/mistweaverco/selfupdate/internal/lib/updater"
)

func main() {
	logger, closer := log.NewFileLogger(files.GetLogFilePath())
	defer func() {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close log file", "error", err)
		}
	}()

	slog.SetDefault(logger)
	providers.Logger = logger
	updater.Logger = logger
	logger.Info("selfupdate started")

	selfupdate.Execute()
}
