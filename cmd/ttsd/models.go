package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ttsd/internal/registry"
	"ttsd/pkg/types"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List decoder and vocoder weights in the weights directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := registry.Scan(opts.cfg.WeightsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tSIZE")
			for _, group := range []struct {
				kind  string
				files []types.WeightFile
			}{{"gpt", res.Decoders}, {"sovits", res.Vocoders}} {
				for _, f := range group.files {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", group.kind, f.Name, f.SizeBytes)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
