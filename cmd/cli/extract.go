package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/app"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
)

func (c *cli) extractCommand() *cobra.Command {
	var (
		kind    string
		uris    []string
		timeout time.Duration
		job     jobs.ExtractionJob
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract and normalize documents stored in GCS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job.Kind = jobs.Kind(kind)
			if !job.Kind.Valid() {
				return fmt.Errorf("--kind must be statement, invoices or trial_balance, got %q", kind)
			}
			if len(uris) == 0 {
				return errors.New("--gcs-uri is required")
			}
			job.GCSURIs = uris
			job.JobID = "cli-" + time.Now().UTC().Format("20060102T150405")

			ctx, cancel := context.WithTimeout(contextOf(cmd), timeout)
			defer cancel()

			a, err := app.New(ctx, c.cfg, c.log, app.Options{Extraction: true})
			if err != nil {
				return err
			}
			defer a.Close()

			runner, err := a.Runner()
			if err != nil {
				return err
			}
			if err := runner.Handle(ctx, &job); err != nil {
				return err
			}

			c.log.Info().
				Int("records", job.Records).
				Int("failures", job.Failures).
				Msg("Extraction completed")
			return c.printJSON(json.RawMessage(job.Result))
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "statement, invoices or trial_balance")
	cmd.Flags().StringArrayVar(&uris, "gcs-uri", nil, "gs:// URI of a page or document, repeat in order")
	cmd.Flags().StringVar(&job.CompanyName, "company-name", "", "reporting company name (invoices)")
	cmd.Flags().StringVar(&job.CompanyTRN, "company-trn", "", "reporting company TRN (invoices)")
	cmd.Flags().Float64Var(&job.OpeningBalance, "opening-balance", 0, "balance before the first row (statement)")
	cmd.Flags().StringVar(&job.PeriodFrom, "from", "", "keep rows on or after this date (statement)")
	cmd.Flags().StringVar(&job.PeriodTo, "to", "", "keep rows on or before this date (statement)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall time limit")
	return cmd
}
