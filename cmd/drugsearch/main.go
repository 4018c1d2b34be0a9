// Command drugsearch loads the FDA drug directory from disk and queries it
// without starting the HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/giygas/fdadrugs-api/config"
	"github.com/giygas/fdadrugs-api/data"
	"github.com/giygas/fdadrugs-api/drugparser"
	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/logging"
	"github.com/giygas/fdadrugs-api/search"
	"github.com/giygas/fdadrugs-api/validation"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "drugsearch",
		Usage: "Fuzzy search over the FDA National Drug Code directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the NDC directory CSV files",
				Value:   "fda-data",
				EnvVars: []string{"DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "data-url",
				Usage:   "Download the CSV files from this base URL before loading",
				EnvVars: []string{"DATA_BASE_URL"},
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Worker pool size for fallback scoring",
				Value: config.DefaultSearchConfig().Workers,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank drugs against a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.IntFlag{
						Name:  "skip",
						Usage: "Number of ranked results to skip",
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Print a drug with its products and packages",
				ArgsUsage: "<drug-id>",
				Action:    showCommand,
			},
			{
				Name:   "classes",
				Usage:  "List pharmacological classes by frequency",
				Action: classesCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Only print the N most frequent classes (0 for all)",
					},
				},
			},
		},
	}
}

// setupLogger routes the package logger to stderr so stdout stays JSON only
func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	logging.DefaultLoggingService = &logging.LoggingService{Logger: logger}
	slog.SetDefault(logger)

	return nil
}

// loadStore parses the data directory and publishes it into a fresh container
func loadStore(c *cli.Context) (*data.DataContainer, error) {
	parser := drugparser.NewDrugsParser(c.String("data-dir"), c.String("data-url"))
	corpus, err := parser.ParseAllDrugs()
	if err != nil {
		return nil, fmt.Errorf("failed to load drugs: %w", err)
	}

	validator := validation.NewDataValidator()
	report := validator.ReportDataQuality(corpus)
	if len(report.DuplicateDrugIDs) > 0 {
		return nil, fmt.Errorf("corpus has duplicate drug ids: %v", report.DuplicateDrugIDs)
	}

	store := data.NewDataContainer()
	if err := store.Publish(corpus, report); err != nil {
		return nil, fmt.Errorf("failed to publish corpus: %w", err)
	}
	return store, nil
}

func newSearcher(c *cli.Context, store *data.DataContainer) (*search.Searcher, error) {
	cfg := config.DefaultSearchConfig()
	if w := c.Int("workers"); w > 0 {
		cfg.Workers = w
	}
	searcher, err := search.NewSearcher(store, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}
	return searcher, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")

	store, err := loadStore(c)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(c, store)
	if err != nil {
		return err
	}
	defer searcher.Close()

	result, err := searcher.Search(entities.SearchParams{
		Query: query,
		Limit: c.Int("limit"),
		Skip:  c.Int("skip"),
	})
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result)
}

func showCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("show takes exactly one drug id")
	}
	id := c.Args().First()

	if err := validation.NewDataValidator().ValidateDrugID(id); err != nil {
		return err
	}

	store, err := loadStore(c)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(c, store)
	if err != nil {
		return err
	}
	defer searcher.Close()

	drug, err := searcher.Lookup(id)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, drug)
}

func classesCommand(c *cli.Context) error {
	top := c.Int("top")
	if top < 0 {
		return fmt.Errorf("top must not be negative")
	}

	store, err := loadStore(c)
	if err != nil {
		return err
	}

	classes := store.GetClassFrequency()
	if top > 0 && top < len(classes) {
		classes = classes[:top]
	}
	return writeJSON(c.App.Writer, classes)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
