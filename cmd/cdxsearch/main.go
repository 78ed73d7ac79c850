// Command cdxsearch searches the therapy table from the command line using the
// same sources and matching rules as the HTTP server.
//
//	cdxsearch --tumor-type lung --gene-mutations NTRK
//	cdxsearch --local-path ./Table_Data.csv --therapy tagrisso --json
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/therafind/internal/core"
	"github.com/JonMunkholm/therafind/internal/dataset"
	"github.com/JonMunkholm/therafind/internal/logging"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// exitLoadFailed is returned when no source produced a table.
const exitLoadFailed = 2

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cdxsearch:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "warn",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "remote-url",
			Usage:   "CSV URL fetched before the local fallbacks",
			EnvVars: []string{"DATA_REMOTE_URL"},
		},
		&cli.StringSliceFlag{
			Name:    "local-path",
			Usage:   "Local CSV fallback, probed in order (repeatable)",
			Value:   cli.NewStringSlice("data/Table_Data.csv", "../data/Table_Data.csv"),
			EnvVars: []string{"DATA_LOCAL_PATHS"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Remote fetch timeout",
			Value:   dataset.DefaultFetchTimeout,
			EnvVars: []string{"DATA_FETCH_TIMEOUT"},
		},
		&cli.Int64Flag{
			Name:    "max-bytes",
			Usage:   "Largest source accepted, in bytes",
			Value:   dataset.DefaultMaxBytes,
			EnvVars: []string{"DATA_MAX_BYTES"},
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the result as JSON instead of a table",
		},
	}
	for _, f := range core.Fields() {
		flags = append(flags, &cli.StringFlag{
			Name:  termFlag(f.Key),
			Usage: fmt.Sprintf("Filter on %q (case-insensitive substring)", f.Column),
		})
	}

	return &cli.App{
		Name:      "cdxsearch",
		Usage:     "Search companion diagnostic therapies",
		UsageText: "cdxsearch [--tumor-type TERM] [--test TERM] [--gene-mutations TERM] [--therapy TERM] [--json]",
		Flags:     flags,
		Before:    setupLogger,
		Action:    searchCommand,
	}
}

// termFlag turns a search key such as "tumor_type" into "tumor-type".
func termFlag(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func setupLogger(c *cli.Context) error {
	level := strings.ToLower(c.String("log-level"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}

	errWriter := c.App.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	slog.SetDefault(logging.New(errWriter, level, "text"))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout")+5*time.Second)
	defer cancel()

	maxBytes := c.Int64("max-bytes")
	loader := dataset.NewLoader(dataset.LoaderConfig{
		RemoteURL:  c.String("remote-url"),
		LocalPaths: dataset.ResolveLocalPaths(c.StringSlice("local-path")),
		Timeout:    c.Duration("timeout"),
		Fetcher:    dataset.NewHTTPFetcher(&http.Client{Timeout: c.Duration("timeout")}, maxBytes),
		Files:      dataset.OSFiles{MaxBytes: maxBytes},
	})

	service, err := core.NewService(loader)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	req := make(core.SearchRequest)
	for _, f := range core.Fields() {
		if v := c.String(termFlag(f.Key)); v != "" {
			req[f.Key] = v
		}
	}

	result, err := service.Search(ctx, req)
	if err != nil {
		return cli.Exit(core.FormatUserError(err)+"\n"+err.Error(), exitLoadFailed)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printTable(c.App.Writer, result)
}

// printTable writes the result as aligned columns followed by a count line.
func printTable(w io.Writer, result *core.SearchResult) error {
	if result.MatchedRows > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
		for _, row := range result.Rows {
			cells := make([]string, len(result.Columns))
			for i, col := range result.Columns {
				cells[i] = strings.ReplaceAll(row.Value(col), "\t", " ")
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	_, err := fmt.Fprintf(w, "%d of %d rows match\n", result.MatchedRows, result.TotalRows)
	return err
}
