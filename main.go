package main

import (
	"fmt"
	"log/slog"
	"os"

	"library-catalog/config"
	"library-catalog/library"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// defaultLibrarianPassword is used when no librarian.password_hash is configured.
const defaultLibrarianPassword = "admin"

var (
	cfg       *config.Config
	logger    *slog.Logger
	closeLogs = func() error { return nil }

	flagConfig  string
	flagNoColor bool
	flagBackend string
)

var rootCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage a small library catalog from the terminal",
	Long: `library keeps a catalog of books and reader accounts in local files.

Run 'library' with no arguments to open the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagNoColor {
			color.NoColor = true
		}

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagBackend != "" {
			cfg.Storage.Backend = flagBackend
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		l, closeFn, err := cfg.Log.NewLogger()
		if err != nil {
			return err
		}
		logger, closeLogs = l, closeFn
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()
		return newMenu(cmd.InOrStdin(), cmd.OutOrStdout(), mgr).run()
	},
}

func main() {
	err := rootCmd.Execute()
	closeLogs()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: data/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: json or sqlite (overrides config)")

	rootCmd.AddCommand(
		newInitCmd(),
		newHashPasswordCmd(),
		newBooksCmd(),
	)
}

func openManager() (*library.LibraryManager, error) {
	hash := []byte(cfg.Librarian.PasswordHash)
	if len(hash) == 0 {
		var err error
		if hash, err = library.HashLibrarianPassword(defaultLibrarianPassword); err != nil {
			return nil, err
		}
	}

	store, err := library.OpenStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	mgr, err := library.NewLibraryManager(store, hash, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return mgr, nil
}
