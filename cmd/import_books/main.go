package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"library-catalog/config"
	"library-catalog/library"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// manifestEntry is one book in the import manifest:
//
//	- title: The Hobbit
//	  author: J.R.R. Tolkien
type manifestEntry struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "import_books <manifest.yml>",
		Short:         "Add every book listed in a YAML manifest to the catalog",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			entries, err := readManifest(args[0])
			if err != nil {
				return err
			}
			logger, closeLogs, err := cfg.Log.NewLogger()
			if err != nil {
				return err
			}
			defer closeLogs()
			store, err := library.OpenStore(cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			lib, err := library.NewLibrary(store, logger)
			if err != nil {
				return err
			}
			return importBooks(cmd.OutOrStdout(), lib, entries)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: data/config.yml)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func readManifest(path string) ([]manifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var entries []manifestEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return entries, nil
}

// importBooks adds entries one by one, reporting each, and prints a summary.
// Rejected entries are counted, not fatal; a failed save is.
func importBooks(w io.Writer, lib *library.Library, entries []manifestEntry) error {
	successCount, skipCount := 0, 0
	for _, e := range entries {
		fmt.Fprintf(w, "Importing: %s by %s... ", e.Title, e.Author)
		_, err := lib.AddBook(e.Title, e.Author)
		switch {
		case err == nil:
			fmt.Fprintln(w, color.GreenString("SUCCESS"))
			successCount++
		case errors.Is(err, library.ErrPersist):
			fmt.Fprintln(w, color.RedString("ERROR"))
			return err
		default:
			fmt.Fprintf(w, "%s - %s\n", color.YellowString("SKIPPED"), library.Describe(err))
			skipCount++
		}
	}

	fmt.Fprintf(w, "\nImport complete!\n")
	fmt.Fprintf(w, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(w, "Skipped: %d\n", skipCount)

	if successCount > 0 {
		fmt.Fprintln(w, "\nCatalog:")
		fmt.Fprintf(w, "%-50s %-30s\n", "Title", "Author")
		fmt.Fprintln(w, strings.Repeat("-", 81))
		for _, b := range lib.Books() {
			fmt.Fprintf(w, "%-50s %-30s\n", truncateString(b.Title, 50), truncateString(b.Author, 30))
		}
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
