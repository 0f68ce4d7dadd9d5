package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/agency-report/pkg/pagination"
	"github.com/Sternrassler/agency-report/pkg/report"
)

type reportFlags struct {
	regions        []string
	serviceGroups  []string
	skip           int
	onPageError    string
	strategy       string
	maxConcurrency int
}

func newReportCmd(state *cliState) *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run one report and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.apply(cmd, state.cfg.ReportConfig())
			if err != nil {
				return err
			}

			d, err := newDeps(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			gen, err := report.NewGenerator(d.client, cfg)
			if err != nil {
				return err
			}
			summaries, err := gen.Generate(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(summaries, "", "    ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	// StringArray, not StringSlice: group names contain commas
	cmd.Flags().StringArrayVar(&flags.regions, "region", nil, "region code to report on (repeatable; OTHERS is always added)")
	cmd.Flags().StringArrayVar(&flags.serviceGroups, "service-group", nil, "service group to count (repeatable; others is always added)")
	cmd.Flags().IntVar(&flags.skip, "skip", 0, "last page index fetched (pages 0..skip)")
	cmd.Flags().StringVar(&flags.onPageError, "on-page-error", "", "abort or skip on a failed page")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "sequential, bounded or unbounded")
	cmd.Flags().IntVar(&flags.maxConcurrency, "max-concurrency", 0, "workers for the bounded strategy")

	return cmd
}

// apply overrides cfg with the flags set on cmd.
func (f *reportFlags) apply(cmd *cobra.Command, cfg report.Config) (report.Config, error) {
	changed := cmd.Flags().Changed

	if changed("region") {
		cfg.Regions = f.regions
	}
	if changed("service-group") {
		cfg.ServiceGroups = f.serviceGroups
	}
	if changed("skip") {
		if f.skip < 0 {
			return cfg, fmt.Errorf("--skip: %w (got %d)", report.ErrInvalidPageBound, f.skip)
		}
		cfg.PageBound = f.skip
	}
	if changed("on-page-error") {
		policy, err := report.ParseOnPageError(f.onPageError)
		if err != nil {
			return cfg, fmt.Errorf("--on-page-error: %w", err)
		}
		cfg.OnPageError = policy
	}
	if changed("strategy") {
		strategy, err := pagination.ParseStrategy(f.strategy)
		if err != nil {
			return cfg, fmt.Errorf("--strategy: %w", err)
		}
		cfg.Fetch.Strategy = strategy
	}
	if changed("max-concurrency") {
		if f.maxConcurrency <= 0 {
			return cfg, fmt.Errorf("--max-concurrency must be > 0 (got %d)", f.maxConcurrency)
		}
		cfg.Fetch.MaxConcurrency = f.maxConcurrency
	}
	return cfg, nil
}
