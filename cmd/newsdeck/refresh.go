package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsokolov/newsdeck/internal/api"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Request a one-shot server-side ingestion and exit",
	Long: "Asks the backend to ingest fresh articles for the sources saved in\n" +
		"your settings, without launching the UI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		settings := store.LoadSettings()
		if last := store.LastRefresh(); !last.IsZero() {
			fmt.Printf("Last refresh: %s\n", last.Format(time.RFC1123))
		}

		client := api.NewClient(cfg.API.BaseURL, cfg.API.UserAgent, cfg.API.Timeout)
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.Timeout)
		defer cancel()

		req := api.RefreshRequest{
			Sources:        settings.Sources,
			LimitPerSource: cfg.Feed.RefreshPerSource,
		}
		if err := client.Refresh(ctx, req); err != nil {
			return fmt.Errorf("refresh request: %w", err)
		}
		if err := store.SetLastRefresh(time.Now()); err != nil {
			return fmt.Errorf("recording refresh time: %w", err)
		}

		if len(settings.Sources) == 0 {
			fmt.Println("Refresh requested for all sources")
		} else {
			fmt.Printf("Refresh requested for %d sources\n", len(settings.Sources))
		}
		return nil
	},
}
