package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/koremd"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of koremd",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("koremd version %s\n", strings.TrimSpace(koremd.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
