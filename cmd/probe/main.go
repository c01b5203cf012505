package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/NahomAnteneh/notion-gateway/pkg/notion"
)

// probe checks that a Notion token can reach the API by listing the
// databases it has been shared with.
func main() {
	baseURL := flag.String("base-url", notion.DefaultBaseURL, "Notion API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	verbose := flag.Bool("v", false, "log upstream requests")
	flag.Parse()

	level := hclog.Info
	if *verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: "probe", Level: level, Output: os.Stderr})

	token, ok := os.LookupEnv("NOTION_TOKEN")
	if !ok {
		logger.Error("NOTION_TOKEN is not set")
		os.Exit(2)
	}

	client := notion.NewClient(*baseURL,
		notion.WithTokenAuth(token),
		notion.WithTimeout(*timeout),
		notion.WithLogger(logger),
		notion.WithVerbose(*verbose))

	if err := run(context.Background(), client); err != nil {
		message, code := notion.ErrorDetails(err)
		logger.Error("probe failed", "code", code, "message", message)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *notion.Client) error {
	raw, err := client.SearchDatabases(ctx)
	if err != nil {
		return err
	}

	var databases []struct {
		ID    string `json:"id"`
		Title []struct {
			PlainText string `json:"plain_text"`
		} `json:"title"`
	}
	if err := json.Unmarshal(raw, &databases); err != nil {
		return fmt.Errorf("failed to decode databases: %w", err)
	}

	fmt.Printf("Found %d databases:\n", len(databases))
	for _, db := range databases {
		title := ""
		for _, t := range db.Title {
			title += t.PlainText
		}
		fmt.Printf("- %s %s\n", db.ID, title)
	}
	return nil
}
