// Package main provides the cinegraph command line: dataset import, graph derivation
// and catalog queries without the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"cinegraph/backend/pkg/logger"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "cinegraph",
		Version: version,
		Usage:   "Movie dataset analytics over MongoDB and Neo4j",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "logging environment (development or production)",
				Value: "development",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, logger.Init(cmd.String("env"))
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			importCommand(),
			deriveCommand(),
			teamCommand(),
			resetCommand(),
			queriesCommand(),
			queryCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
