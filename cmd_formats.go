package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"auramythos/generator"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the available format templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		formats := generator.DefaultFormats()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDEFAULT")
		for _, f := range formats.List() {
			def := ""
			if f.ID == formats.Default().ID {
				def = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, def)
		}
		return w.Flush()
	},
}
