package main

import (
	"encoding/json"
	"fmt"

	"github.com/pokerjest/animatch/internal/parser"
	"github.com/spf13/cobra"
)

func newParseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "parse <release name>...",
		Short:       "Show the title and episode extracted from release names",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range args {
				c := parser.ParseReleaseName(name)
				if asJSON {
					data, err := json.Marshal(c)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					continue
				}
				if !c.OK() {
					fmt.Fprintf(out, "%s\t%d\n", name, parser.ReasonExtractionFailed)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", name, c.Title, c.Episode, c.Rule)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per name")
	return cmd
}
