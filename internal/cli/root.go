// Package cli implements the heatcli command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/heat-emissions/internal/adapter/dataset"
	"github.com/couchcryptid/heat-emissions/internal/config"
	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/observability"
	"github.com/couchcryptid/heat-emissions/internal/pipeline"
	"github.com/couchcryptid/heat-emissions/internal/report"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	file     string
	url      string
	output   string
	timeout  time.Duration
	logLevel string

	format report.Format
	logger *slog.Logger
}

// NewRootCmd builds the heatcli root command with all subcommands attached.
func NewRootCmd(ver string) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "heatcli",
		Short:         "Compare wood stove emissions with other heating methods",
		Long:          "heatcli: Compare lifecycle CO2 emissions of a wood stove against heat pumps, electric and fossil heating using Ember grid intensity data",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.timeout <= 0 {
				return fmt.Errorf("timeout must be > 0, got %s", opts.timeout)
			}
			f, err := report.ParseFormat(opts.output)
			if err != nil {
				return err
			}
			opts.format = f
			opts.logger = observability.NewConsoleLogger(cmd.ErrOrStderr(), opts.logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.file, "file", "", "read the dataset from a local CSV file (overrides --url)")
	cmd.PersistentFlags().StringVar(&opts.url, "url", config.DefaultDatasetURL, "dataset URL")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "dataset download timeout")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newCountriesCmd(opts),
		newMixCmd(opts),
		newCompareCmd(opts),
		newValidateCmd(opts),
		newSourcesCmd(opts),
	)
	return cmd
}

const rootCmdExample = `  # List countries with their latest grid intensity
  heatcli countries

  # Compare a wood stove with an air-source heat pump in Sweden
  heatcli compare SWE --source ashp

  # Same comparison against a local copy of the dataset, as JSON
  heatcli compare Sweden --file monthly_full_release_long_format.csv -o json

  # Show the generation mix of Poland
  heatcli mix POL

  # Check a dataset file before deploying it
  heatcli validate --file monthly_full_release_long_format.csv`

// source returns the dataset source selected by the persistent flags.
func (o *globalOptions) source() pipeline.Source {
	if o.file != "" {
		return dataset.NewFileSource(o.file)
	}
	return dataset.NewHTTPSource(o.url, o.timeout, o.logger)
}

// sourceName describes the selected dataset source for reports.
func (o *globalOptions) sourceName() string {
	if o.file != "" {
		return o.file
	}
	return o.url
}

// loadDataset reads and parses the dataset once.
func (o *globalOptions) loadDataset(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()
	rc, err := o.source().Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer rc.Close()

	res, err := domain.ParseDataset(rc)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	ds := domain.BuildDataset(res)
	o.logger.Info("dataset loaded",
		"source", o.sourceName(),
		"rows", ds.Rows,
		"skipped", ds.Skipped,
		"duration", time.Since(start),
	)
	return ds, nil
}

func newSourcesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the heat sources that can be compared",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return report.RenderHeatSources(cmd.OutOrStdout(), domain.HeatSources(), opts.format)
		},
	}
}
