package main

import (
	"context"

	"timeclock/internal/app/server"
	"timeclock/internal/platform/logger"
)

func main() {
	if err := server.Run(); err != nil {
		logger.From(context.Background()).Fatal().Err(err).Msg("server stopped")
	}
}
