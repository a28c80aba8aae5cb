package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/koremd/pkg/markdown"
)

var (
	showHTML  bool
	showRaw   bool
	showWidth int
)

var showCmd = &cobra.Command{
	Use:   "show [id|name]",
	Short: "Show a note",
	Long: heredoc.Doc(`
		Show a note rendered for the terminal using the theme setting.
		Output is raw Markdown when stdout is not a terminal or with --raw;
		--html prints the sanitized HTML preview instead.
	`),
	Example: heredoc.Doc(`
		koremd show ideas.md
		koremd show 0199 --html > preview.html
	`),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(cmd.Context())
		defer app.Close()

		f, err := resolveFile(app, args[0])
		if err != nil {
			fatal("Error reading note", err)
		}

		switch {
		case showHTML:
			fmt.Print(app.Renderer.Render(f.Content))
		case showRaw || !isatty.IsTerminal(os.Stdout.Fd()):
			fmt.Print(f.Content)
		default:
			width := showWidth
			if !cmd.Flags().Changed("width") {
				width = terminalWidth()
			}
			tr, err := markdown.NewTerminalRenderer(app.Settings.Settings().Theme, width)
			if err != nil {
				fatal("Error preparing renderer", err)
			}
			out, err := tr.Render(f.Content)
			if err != nil {
				fatal("Error rendering note", err)
			}
			fmt.Print(out)
		}
	},
}

// terminalWidth returns the stdout width capped at DefaultWrap, or DefaultWrap when unknown.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return markdown.DefaultWrap
	}
	return min(w, markdown.DefaultWrap)
}

func init() {
	showCmd.Flags().BoolVar(&showHTML, "html", false, "Print the HTML preview")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print raw Markdown")
	showCmd.Flags().IntVarP(&showWidth, "width", "w", markdown.DefaultWrap, "Word wrap width")
	rootCmd.AddCommand(showCmd)
}
