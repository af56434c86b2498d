// Command spotify-history-logger ingests recently played Spotify tracks
// into Postgres and backfills descriptive metadata for the artists they
// reference.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/justestif/spotify-history-logger/internal/auth"
	"github.com/justestif/spotify-history-logger/internal/config"
	"github.com/justestif/spotify-history-logger/internal/db"
	"github.com/justestif/spotify-history-logger/internal/ingest"
	"github.com/justestif/spotify-history-logger/internal/logger"
	spotifyclient "github.com/justestif/spotify-history-logger/internal/spotify"
)

// previewCap limits how many fetch-set members a dry run prints.
const previewCap = 20

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; variables already in the environment win.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s <fetch|backfill> [flags]", os.Args[0])
	}

	switch os.Args[1] {
	case "fetch":
		return runFetch(os.Args[2:])
	case "backfill":
		return runBackfill(os.Args[2:])
	default:
		return fmt.Errorf("unknown command %q (expected fetch or backfill)", os.Args[1])
	}
}

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of recent tracks to retrieve (1-50)")
	save := fs.Bool("save", false, "persist the response to Postgres")
	raw := fs.Bool("raw", false, "print the raw JSON response instead of a summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n := max(1, min(*limit, 50))

	ctx := context.Background()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	if !*save {
		resp, body, err := client.RecentlyPlayed(ctx, n)
		if err != nil {
			return err
		}
		if *raw {
			var out bytes.Buffer
			if err := json.Indent(&out, body, "", "  "); err != nil {
				return fmt.Errorf("formatting response: %w", err)
			}
			fmt.Println(out.String())
			return nil
		}
		if len(resp.Items) == 0 {
			fmt.Println("No recent tracks found.")
			return nil
		}
		printTracks(resp.Items)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).WithComponent("fetch")

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	service := ingest.New(database, client, log)
	result, err := service.Run(ctx, n, true)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %d plays (%d new artists, %d metadata records fetched).\n",
		result.Plays, result.NewArtists, result.FetchedArtists)
	return nil
}

func runBackfill(args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "preview the fetch set without fetching or writing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).WithComponent("backfill")

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	service := ingest.New(database, client, log)
	result, err := service.Backfill(ctx, *dryRun)
	if err != nil {
		return err
	}

	if len(result.Candidates) == 0 {
		fmt.Println("No artists need metadata. All good!")
		return nil
	}

	if *dryRun {
		fmt.Printf("Would fetch metadata for %d artists:\n", len(result.Candidates))
		for i, c := range result.Candidates {
			if i == previewCap {
				fmt.Printf("  ... and %d more\n", len(result.Candidates)-previewCap)
				break
			}
			status := "UPDATE"
			if c.New {
				status = "NEW"
			}
			fmt.Printf("  [%s] %s (%s)\n", status, c.Name, c.ID)
		}
		return nil
	}

	fmt.Printf("Backfilled %d artists (%d new, %d updated).\n",
		result.Fetched, result.Added, result.Updated)
	return nil
}

// newClient authenticates against Spotify and wraps the result.
func newClient(ctx context.Context) (*spotifyclient.Client, error) {
	authenticator, err := auth.New()
	if err != nil {
		return nil, err
	}

	api, httpClient, err := authenticator.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	return spotifyclient.New(api, httpClient), nil
}

// printTracks writes a human-readable listing of recent plays to stdout.
func printTracks(items []spotifyclient.PlayedItem) {
	for _, item := range items {
		playedAt := item.PlayedAt
		if t, err := time.Parse(time.RFC3339, item.PlayedAt); err == nil {
			playedAt = t.Local().Format("2006-01-02 15:04:05 MST")
		}

		names := make([]string, 0, len(item.Track.Artists))
		for _, a := range item.Track.Artists {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}

		externalURL := item.Track.ExternalURLs["spotify"]
		if externalURL == "" {
			externalURL = "N/A"
		}

		fmt.Printf("%s | %s - %s\nAlbum: %s\nURL: %s\n\n",
			playedAt, item.Track.Name, strings.Join(names, ", "),
			item.Track.Album.Name, externalURL)
	}
}
