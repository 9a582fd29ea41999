package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jsokolov/newsdeck/internal/config"
	"github.com/jsokolov/newsdeck/internal/debuglog"
	"github.com/jsokolov/newsdeck/internal/storage"
	"github.com/jsokolov/newsdeck/internal/tui"
)

// Version is set at build time.
var Version = "dev"

var (
	flagConfig         string
	flagAPI            string
	flagDB             string
	flagLogLevel       string
	flagGenerateConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "newsdeck",
	Short: "Terminal client for a news aggregation backend",
	Long: "newsdeck browses a news aggregation backend from the terminal:\n" +
		"pick sources, filter by keyword and date, page through the feed,\n" +
		"and trigger server-side ingestion.",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "off", "log level (debug, info, warn, error, off)")
	rootCmd.Flags().BoolVar(&flagGenerateConfig, "generate-config", false, "write the default config file and exit")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(settingsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		tui.ShowBanner(Version)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagAPI != "" {
		cfg.API.BaseURL = flagAPI
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if flagGenerateConfig {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "newsdeck", "config.toml")
		if err := config.GenerateDefaultConfig(configFile); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", configFile)
		return nil
	}

	if level := debuglog.ParseLogLevel(flagLogLevel); flagLogLevel != "off" {
		if err := debuglog.Setup(level); err != nil {
			return err
		}
		defer debuglog.Close()
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

	app := tui.NewApp(store, cfg)
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
