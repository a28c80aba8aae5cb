package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [id|name]",
	Short: "Export a note",
	Long: heredoc.Doc(`
		Hand a note to the platform export surface. On native the note is written
		to the cache directory and shared; on web it is downloaded into the downloads directory.
	`),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		app := openApp(ctx)
		defer app.Close()

		f, err := resolveFile(app, args[0])
		if err != nil {
			fatal("Error reading note", err)
		}
		if err := app.Exporter.Export(ctx, f); err != nil {
			fatal("Error exporting note", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
