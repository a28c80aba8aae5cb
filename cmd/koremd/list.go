package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/araddon/dateparse"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/koremd"
	"github.com/aretw0/koremd/pkg/core"
)

var (
	listQuery  string
	listSince  string
	listOutput string
	listFuzzy  string
)

var headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long: heredoc.Doc(`
		List notes newest first. The query matches names and content, ignoring case.
		--since accepts most date formats, e.g. "2024-03-01", "March 1 2024" or a unix timestamp.
		--fuzzy ranks notes by a fuzzy match of their names instead, best first.
	`),
	Example: heredoc.Doc(`
		koremd list
		koremd list -q todo --since 2024-01-01
		koremd list -o yaml
		koremd list --fuzzy grcs
	`),
	Run: func(cmd *cobra.Command, args []string) {
		var since time.Time
		if listSince != "" {
			t, err := dateparse.ParseLocal(listSince)
			if err != nil {
				fatal("Error parsing --since", err)
			}
			since = t
		}

		app := openApp(cmd.Context())
		defer app.Close()

		files := filterSince(core.FilterFiles(app.Registry.Files(), listQuery), since)
		if listFuzzy != "" {
			files = rankByName(files, listFuzzy)
		}

		switch listOutput {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(files); err != nil {
				fatal("Error encoding JSON", err)
			}
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(files); err != nil {
				fatal("Error encoding YAML", err)
			}
			_ = enc.Close()
		case "table", "":
			fmt.Print(formatTable(files, isatty.IsTerminal(os.Stdout.Fd())))
		default:
			fatal("Error", fmt.Errorf("unknown output format %q", listOutput))
		}
	},
}

// filterSince keeps notes updated at or after since. A zero since keeps everything.
func filterSince(files []koremd.MarkdownFile, since time.Time) []koremd.MarkdownFile {
	if since.IsZero() {
		return files
	}
	cutoff := since.UnixMilli()
	out := files[:0]
	for _, f := range files {
		if f.UpdatedAt >= cutoff {
			out = append(out, f)
		}
	}
	return out
}

// fileNames adapts notes to fuzzy.Source.
type fileNames []koremd.MarkdownFile

func (f fileNames) String(i int) string { return f[i].Name }
func (f fileNames) Len() int            { return len(f) }

// rankByName keeps the notes whose name fuzzily matches pattern, best match first.
func rankByName(files []koremd.MarkdownFile, pattern string) []koremd.MarkdownFile {
	matches := fuzzy.FindFrom(pattern, fileNames(files))
	out := make([]koremd.MarkdownFile, 0, len(matches))
	for _, m := range matches {
		out = append(out, files[m.Index])
	}
	return out
}

// formatTable lays files out in aligned columns. The header is styled when styled is set.
func formatTable(files []koremd.MarkdownFile, styled bool) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUPDATED\tCHARS")
	for _, f := range files {
		updated := time.UnixMilli(f.UpdatedAt).Format(time.DateTime)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", f.ID, f.Name, updated, koremd.WordCount(f.Content))
	}
	_ = w.Flush()

	if !styled {
		return buf.String()
	}
	header, rest, _ := strings.Cut(buf.String(), "\n")
	return headerStyle.Render(strings.TrimRight(header, " ")) + "\n" + rest
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Filter by name or content")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only notes updated since this date")
	listCmd.Flags().StringVar(&listFuzzy, "fuzzy", "", "Rank by fuzzy name match")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)
}
