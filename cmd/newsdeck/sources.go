package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsokolov/newsdeck/internal/api"
	"github.com/jsokolov/newsdeck/internal/controller"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List backend sources and their selection state",
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

		client := api.NewClient(cfg.API.BaseURL, cfg.API.UserAgent, cfg.API.Timeout)
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.Timeout)
		defer cancel()

		sources, err := client.Sources(ctx)
		if err != nil {
			return fmt.Errorf("fetching sources: %w", err)
		}
		if len(sources) == 0 {
			fmt.Println("No sources available")
			return nil
		}

		ctrl := controller.New(cfg.Feed.PageSize)
		ctrl.SetSources(sources, store.LoadSettings())

		for _, s := range sources {
			marker := " "
			if ctrl.IsSelected(s.Key) {
				marker = "x"
			}
			fmt.Printf("[%s] %-20s %s\n", marker, s.Key, s.Title)
		}
		fmt.Printf("\n%d of %d selected\n", ctrl.SelectedCount(), len(sources))
		return nil
	},
}
