package main

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var (
	editContent string
	editName    string
	editFile    string
	editStdin   bool
)

var editCmd = &cobra.Command{
	Use:   "edit [id|name]",
	Short: "Update a note",
	Long: heredoc.Doc(`
		Replace the content of a note and optionally rename it.
		Content comes from --content, --file or --stdin; without any of them it is kept.
	`),
	Example: heredoc.Doc(`
		koremd edit ideas.md --content "# Better ideas"
		koremd edit 0199 --file draft.md --name final.md
		cat draft.md | koremd edit ideas.md --stdin
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

		content := f.Content
		switch {
		case cmd.Flags().Changed("content"):
			content = editContent
		case editFile != "":
			data, err := os.ReadFile(editFile)
			if err != nil {
				fatal("Error reading file", err)
			}
			content = string(data)
		case editStdin:
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Error reading stdin", err)
			}
			content = string(data)
		}

		app.Registry.Update(ctx, f.ID, content, editName)
		fmt.Println(f.ID)
	},
}

func init() {
	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New content")
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "Read new content from a file")
	editCmd.Flags().BoolVar(&editStdin, "stdin", false, "Read new content from stdin")
	editCmd.Flags().StringVarP(&editName, "name", "n", "", "Rename the note")
	editCmd.MarkFlagsMutuallyExclusive("content", "file", "stdin")
	rootCmd.AddCommand(editCmd)
}
