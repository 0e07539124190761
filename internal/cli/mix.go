package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/report"
)

func newMixCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mix <country>",
		Short: "Show a country's electricity generation mix",
		Long: `Show the latest generation share and emission rate of each fuel category.
Categories below 2% of generation are folded into "Other".`,
		Example: `  heatcli mix DEU
  heatcli mix "United Kingdom" -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			country, err := ds.ResolveCountry(args[0], domain.Defaults())
			if err != nil {
				return err
			}
			shares, rates, ok := ds.CountryMix(country.Code)
			if !ok {
				return fmt.Errorf("no generation mix data for %s", country.Code)
			}
			return report.RenderMix(cmd.OutOrStdout(), report.MixReport{
				Country:   country,
				Shares:    shares,
				Rates:     rates,
				Breakdown: ds.Breakdown(country.Code),
			}, opts.format)
		},
	}
}
