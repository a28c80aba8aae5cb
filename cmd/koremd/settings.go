package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/koremd/pkg/core"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(cmd.Context())
		defer app.Close()

		enc := yaml.NewEncoder(os.Stdout)
		if err := enc.Encode(app.Settings.Settings()); err != nil {
			fatal("Error encoding settings", err)
		}
		_ = enc.Close()
	},
}

var settingsGetCmd = &cobra.Command{
	Use:       "get [key]",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"language", "fontSize", "fontFamily", "theme"},
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(cmd.Context())
		defer app.Close()

		s := app.Settings.Settings()
		switch args[0] {
		case "language":
			fmt.Println(s.Language)
		case "fontSize":
			fmt.Println(s.FontSize)
		case "fontFamily":
			fmt.Println(s.FontFamily)
		case "theme":
			fmt.Println(s.Theme)
		default:
			fatal("Error", fmt.Errorf("unknown setting %q", args[0]))
		}
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: heredoc.Doc(`
		Change one setting. Keys: language (ja|en), fontSize (clamped to 12-24),
		fontFamily, theme (light|dark).
	`),
	Example: heredoc.Doc(`
		koremd settings set theme dark
		koremd settings set fontSize 18
	`),
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"language", "fontSize", "fontFamily", "theme"},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		app := openApp(ctx)
		defer app.Close()

		st := app.Settings
		var err error
		switch key, value := args[0], args[1]; key {
		case "language":
			err = st.SetLanguage(ctx, core.Language(value))
		case "fontSize":
			size, perr := strconv.Atoi(value)
			if perr != nil {
				fatal("Error parsing fontSize", perr)
			}
			err = st.SetFontSize(ctx, size)
		case "fontFamily":
			err = st.SetFontFamily(ctx, value)
		case "theme":
			err = st.SetTheme(ctx, core.Theme(value))
		default:
			err = fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			fatal("Error changing setting", err)
		}
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
