package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/examconduct/internal/pkg/logger"
	"github.com/yigit/examconduct/internal/server"
)

// @title Exam Conduction API
// @version 1.0
// @description API for conducting online exams: bulk exercise start, live start progress, submission and test runs

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped with errors")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("Application finished gracefully")
}
