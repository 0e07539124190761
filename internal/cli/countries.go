package cli

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/heat-emissions/internal/report"
)

func newCountriesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List countries with carbon intensity data",
		Long:  "List every country in the dataset that has carbon intensity observations, with its latest value.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := opts.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			return report.RenderCountries(cmd.OutOrStdout(), report.CountryRows(ds), opts.format)
		},
	}
}
