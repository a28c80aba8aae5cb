package main

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var (
	newContent string
	newStdin   bool
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a note",
	Long: heredoc.Doc(`
		Create a note at the top of the list and print its ID.
		Without a name the note is called Untitled.md.
	`),
	Example: heredoc.Doc(`
		koremd new
		koremd new ideas.md --content "# Ideas"
		echo "- milk" | koremd new groceries.md --stdin
	`),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		app := openApp(ctx)
		defer app.Close()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		content := newContent
		if newStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Error reading stdin", err)
			}
			content = string(data)
		}

		f := app.Registry.Create(ctx, name)
		if content != "" {
			app.Registry.Update(ctx, f.ID, content, "")
		}
		fmt.Println(f.ID)
	},
}

func init() {
	newCmd.Flags().StringVarP(&newContent, "content", "c", "", "Initial content")
	newCmd.Flags().BoolVar(&newStdin, "stdin", false, "Read initial content from stdin")
	rootCmd.AddCommand(newCmd)
}
