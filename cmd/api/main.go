package main

import (
	"context"
	"os"

	"github.com/yigit/roster/internal/pkg/logger" // Still needed for initial error logging
	"github.com/yigit/roster/internal/server"
)

// @title Student Roster API
// @version 1.0
// @description REST API for students, courses and their enrollments

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3014
// @BasePath /api
// @schemes http https

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run the server (this blocks until shutdown signal)
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
