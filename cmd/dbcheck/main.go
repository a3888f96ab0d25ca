package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yigit/roster/internal/bootstrap"
	"github.com/yigit/roster/internal/db"
	"github.com/yigit/roster/internal/diagnostics"
	"github.com/yigit/roster/internal/pkg/logger"
)

func main() {
	schema := flag.String("schema", "public", "schema to inspect")
	asJSON := flag.Bool("json", false, "print the report as JSON on stdout")
	flag.Parse()

	os.Exit(run(*schema, *asJSON))
}

func run(schema string, asJSON bool) int {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	lgr.Info().Msg("Testing PostgreSQL connection...")
	database, err := db.NewPostgresDB(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Database connection error")
		return 1
	}
	defer database.Close()
	lgr.Info().Msg("Successfully connected to PostgreSQL")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	report, err := diagnostics.NewChecker(database.Pool).Run(ctx, schema)
	if err != nil {
		lgr.Error().Err(err).Msg("Database check failed")
		return 1
	}

	if asJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to encode report")
			return 1
		}
		fmt.Println(string(out))
	}

	lgr.Info().Str("database", report.Database).Str("user", report.CurrentUser).Msg("Current database")
	if report.Schema != nil {
		lgr.Info().Str("schema", report.Schema.Name).Bool("usage", report.Schema.Usage).Bool("create", report.Schema.Create).Msg("Schema permissions")
	}
	for _, t := range report.Tables {
		lgr.Info().Str("table", t.Name).Bool("select", t.Select).Bool("insert", t.Insert).
			Bool("update", t.Update).Bool("delete", t.Delete).Msg("Table permissions")
	}

	problems := report.Problems()
	for _, p := range problems {
		lgr.Warn().Msg(p)
	}
	if len(problems) > 0 {
		return 2
	}

	lgr.Info().Msg("Database is ready")
	return 0
}
