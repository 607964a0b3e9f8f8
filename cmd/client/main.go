package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/rampforge/rampforge/internal/buildinfo"
	"github.com/rampforge/rampforge/internal/client/cli"
	"github.com/rampforge/rampforge/internal/client/config"
	"github.com/rampforge/rampforge/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app, err := cli.NewApp(cfg, logger)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
