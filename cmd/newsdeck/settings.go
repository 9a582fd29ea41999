package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jsokolov/newsdeck/internal/storage"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Export or import saved filter settings",
}

func init() {
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)
}

var settingsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the saved settings to a TOML file",
	Args:  cobra.ExactArgs(1),
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

		data, err := toml.Marshal(store.LoadSettings())
		if err != nil {
			return fmt.Errorf("encoding settings: %w", err)
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", args[0], err)
		}

		fmt.Printf("Settings exported to %s\n", args[0])
		return nil
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge settings from a TOML file into the saved settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		// Decode onto the existing record so fields absent from the file
		// keep their current values.
		settings := store.LoadSettings()
		if err := toml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("decoding settings: %w", err)
		}
		if err := validateSettings(settings); err != nil {
			return err
		}

		if err := store.SaveSettings(settings); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}

		fmt.Printf("Settings imported from %s\n", args[0])
		return nil
	},
}

func validateSettings(s storage.Settings) error {
	switch s.Period {
	case "", storage.Period24h, storage.PeriodCustom, storage.PeriodAll:
	default:
		return fmt.Errorf("invalid period %q (want 24h, custom, or all)", s.Period)
	}

	for _, d := range []string{s.FromDate, s.ToDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}

	if s.RefreshMins < 0 {
		return fmt.Errorf("refresh interval must not be negative")
	}
	return nil
}
