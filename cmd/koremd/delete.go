package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [id|name]...",
	Aliases: []string{"rm"},
	Short:   "Delete notes",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		app := openApp(ctx)
		defer app.Close()

		for _, ref := range args {
			f, err := resolveFile(app, ref)
			if err != nil {
				fatal("Error deleting note", err)
			}
			app.Registry.Delete(ctx, f.ID)
			fmt.Printf("Deleted %s (%s)\n", f.Name, f.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
