package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/filmiq/filmiq/internal/variant"
)

func newValidateCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the built-in games and the --variants file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			variants, err := variant.Resolve(cfg.variantsFile)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(variants))
			for name := range variants {
				names = append(names, name)
			}
			slices.Sort(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				v := variants[name]
				if err := v.Validate(); err != nil {
					return err
				}
				pts := make([]string, len(v.Points))
				for i, p := range v.Points {
					pts[i] = fmt.Sprint(p)
				}
				fmt.Fprintf(out, "%-10s %-8s %d stages, points %s\n", name, v.Mode, v.Stages(), strings.Join(pts, "/"))
			}
			return nil
		},
	}
}
