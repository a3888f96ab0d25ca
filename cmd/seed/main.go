package main

import (
	"context"
	"flag"
	"os"

	"github.com/yigit/roster/internal/app/repositories"
	"github.com/yigit/roster/internal/bootstrap"
	"github.com/yigit/roster/internal/db"
	"github.com/yigit/roster/internal/pkg/logger"
	"github.com/yigit/roster/internal/seed"
)

func main() {
	migrate := flag.Bool("migrate", true, "apply pending migrations before seeding")
	flag.Parse()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	database, err := db.NewPostgresDB(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	if *migrate {
		if err := bootstrap.RunMigrations(ctx, database.Pool, lgr); err != nil {
			database.Close()
			os.Exit(1)
		}
	}

	result, err := seed.CreateDefaultData(ctx, repositories.NewCourseRepository(database.Pool), lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Seeding finished with errors")
		database.Close()
		os.Exit(1)
	}

	lgr.Info().Int("created", result.Created).Int("existing", result.Existing).Msg("Seeding complete")
}
