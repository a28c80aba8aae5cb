package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [pattern]...",
	Short: "Import Markdown files",
	Long: heredoc.Doc(`
		Import files from disk as new notes. Each argument is a path or a glob
		pattern; ** matches across directories. The note takes the file's base name.
	`),
	Example: heredoc.Doc(`
		koremd import README.md
		koremd import "docs/**/*.md"
	`),
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := expandPatterns(args)
		if err != nil {
			fatal("Error expanding patterns", err)
		}
		if len(paths) == 0 {
			fatal("Error", fmt.Errorf("no files match %v", args))
		}

		ctx := cmd.Context()
		app := openApp(ctx)
		defer app.Close()

		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				fatal("Error reading file", err)
			}
			f := app.Registry.Import(ctx, filepath.Base(p), string(data))
			fmt.Printf("%s\t%s\n", f.ID, p)
		}
	},
}

// expandPatterns resolves globs to regular files, dropping duplicates and keeping order.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
