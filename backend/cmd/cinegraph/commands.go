package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"cinegraph/backend/internal/catalog"
	"cinegraph/backend/internal/derive"
	"cinegraph/backend/internal/docquery"
	"cinegraph/backend/internal/docstore"
	"cinegraph/backend/internal/graph"
	"cinegraph/backend/pkg/config"
	"cinegraph/backend/pkg/logger"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var errQueryID = errors.New("expected exactly one query id")

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load a one-film-per-line JSON export into the films collection",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "empty a populated collection before importing",
			},
		},
		Action: runImport,
	}
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("expected exactly one file")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	stats, err := docstore.NewImporter(store).ImportFile(ctx, cmd.Args().First(), cmd.Bool("replace"))
	if err != nil {
		return err
	}

	return renderPairs(os.Stdout, [][2]string{
		{"Lines", strconv.Itoa(stats.Lines)},
		{"Inserted", strconv.Itoa(stats.Inserted)},
		{"Replaced", strconv.FormatInt(stats.Replaced, 10)},
		{"Design documents skipped", strconv.Itoa(stats.Design)},
		{"Malformed lines skipped", strconv.Itoa(stats.Skipped)},
	})
}

func deriveCommand() *cli.Command {
	return &cli.Command{
		Name:  "derive",
		Usage: "Build the film graph in Neo4j from the films collection",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "stages",
				Usage: "stages to run (constraints, films, actors, directors, team); all when empty",
			},
			&cli.StringSliceFlag{
				Name:  "team",
				Usage: "team members attached to the first film (defaults to TEAM_MEMBERS)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stages, err := derive.ParseStages(cmd.StringSlice("stages"))
			if err != nil {
				return err
			}
			return runDerive(ctx, stages, cmd.StringSlice("team"))
		},
	}
}

func teamCommand() *cli.Command {
	return &cli.Command{
		Name:      "team",
		Usage:     "Attach team members to the film with the smallest id",
		ArgsUsage: "[name...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDerive(ctx, []derive.Stage{derive.StageTeam}, cmd.Args().Slice())
		},
	}
}

func runDerive(ctx context.Context, stages []derive.Stage, team []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if len(team) == 0 {
		team = cfg.TeamMembers
	}

	store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	driver, err := graph.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	repo := graph.NewRepository(driver)
	defer repo.Close()

	builder := derive.NewBuilder(store, repo, derive.Options{
		BatchSize:   cfg.FilmBatchSize,
		TeamMembers: team,
	})
	report, err := builder.Run(ctx, stages...)
	if report != nil {
		if renderErr := renderReport(os.Stdout, report); renderErr != nil {
			return renderErr
		}
	}
	if err != nil {
		return err
	}

	counts, err := repo.Counts(ctx)
	if err != nil {
		return err
	}
	return renderCounts(os.Stdout, counts)
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete every film, actor, director and genre node from Neo4j",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip the confirmation prompt",
			},
		},
		Action: runReset,
	}
}

func runReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		fmt.Print("This deletes the whole film graph. Continue? (yes/no): ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "yes" && response != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	driver, err := graph.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	repo := graph.NewRepository(driver)
	defer repo.Close()

	deleted, err := repo.Reset(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d nodes\n", deleted)
	return nil
}

func queriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "queries",
		Usage: "List the query catalog",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return renderCatalog(os.Stdout, catalog.Catalog())
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run one catalog query",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "actor", Usage: "actor name"},
			&cli.StringFlag{Name: "actor2", Usage: "second actor name (shortest path)"},
			&cli.IntFlag{Name: "limit", Usage: "row limit"},
			&cli.IntFlag{Name: "min", Usage: "minimum film count"},
			&cli.StringFlag{Name: "sort", Usage: "collaboration sort key (revenue, votes, count)"},
			&cli.StringFlag{Name: "collab-sort", Usage: "raw collaboration list sort key (count, director)"},
			&cli.StringFlag{Name: "mode", Usage: "competition write mode (accumulate, rebuild)"},
			&cli.StringFlag{Name: "role", Usage: "actor or director for queries 14 and 16"},
		},
		Action: runQuery,
	}
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errQueryID
	}
	id, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: %s", errQueryID, cmd.Args().First())
	}
	entry, ok := catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("unknown query %d", id)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Get()

	// Only the store the query reads is opened
	var docs catalog.DocumentQueries
	var graphQueries catalog.GraphQueries
	if entry.Store == catalog.StoreDocuments {
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			log.Warn("MongoDB unavailable", zap.Error(err))
		} else {
			defer store.Close(context.Background())
			docs = docquery.NewEngine(store, cfg.PairResultCap)
		}
	} else {
		driver, err := graph.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Warn("Neo4j unavailable", zap.Error(err))
		} else {
			repo := graph.NewRepository(driver)
			defer repo.Close()
			graphQueries = repo
		}
	}

	exec := catalog.NewExecutor(docs, graphQueries, catalog.Options{
		CompetitionMode: cfg.CompetitionMode,
		Timeout:         time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
	})
	res := exec.Execute(ctx, id, catalog.Params{
		Actor:  cmd.String("actor"),
		Actor2: cmd.String("actor2"),
		Limit:  int(cmd.Int("limit")),
		Min:    int(cmd.Int("min")),
		Sort:   cmd.String("sort"),
		Mode:   cmd.String("mode"),
		Role:   cmd.String("role"),

		CollabSort: cmd.String("collab-sort"),
	})
	return renderResult(os.Stdout, res)
}
