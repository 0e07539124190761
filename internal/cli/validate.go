package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/heat-emissions/internal/report"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a dataset and report what it contains",
		Long:  "Parse the dataset, report rows parsed and skipped, and count the countries with intensity and mix data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := opts.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			r := report.NewValidationReport(opts.sourceName(), ds)
			if err := report.RenderValidation(cmd.OutOrStdout(), r, opts.format); err != nil {
				return err
			}
			if strict && r.Skipped > 0 {
				return fmt.Errorf("%d rows skipped", r.Skipped)
			}
			if r.Countries == 0 {
				return fmt.Errorf("no carbon intensity data found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any row is skipped")
	return cmd
}
