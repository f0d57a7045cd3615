package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ceprince/packing-list/internal/app"
	"github.com/ceprince/packing-list/internal/logging"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/sheet"
	"github.com/ceprince/packing-list/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := run(*configPath, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "packlist: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogPath, debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	source := sheet.NewSource(cfg.SheetURL)

	logger.Info("starting",
		zap.String("config", configPath),
		zap.String("database", cfg.DatabasePath),
	)

	program := tea.NewProgram(
		app.New(cfg, configPath, st, source, logger),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
