package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/app"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/dates"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/invoice"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

type normalizeFlags struct {
	file           string
	source         string
	openingBalance float64
	from           string
	to             string
	companyName    string
	companyTRN     string
}

func (c *cli) normalizeCommands() *cobra.Command {
	var f normalizeFlags

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize raw extraction output without calling the model",
	}
	cmd.PersistentFlags().StringVarP(&f.file, "file", "f", "-", "raw model output to read, - for stdin")
	cmd.PersistentFlags().StringVar(&f.source, "source", "", "source label for records (defaults to the file name)")

	transactions := &cobra.Command{
		Use:   "transactions",
		Short: "Deduplicate, validate and convert a bank statement ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := dates.ParseRange(f.from, f.to)
			if err != nil {
				return err
			}
			return c.withText(cmd, f, func(a *app.App, source, text string) (any, error) {
				return a.Statements.NormalizeText(contextOf(cmd), source, text, pipeline.StatementInput{
					OpeningBalance: f.openingBalance,
					Period:         period,
				})
			})
		},
	}
	transactions.Flags().Float64Var(&f.openingBalance, "opening-balance", 0, "balance before the first row")
	transactions.Flags().StringVar(&f.from, "from", "", "keep rows on or after this date")
	transactions.Flags().StringVar(&f.to, "to", "", "keep rows on or before this date")

	invoices := &cobra.Command{
		Use:   "invoices",
		Short: "Reconcile, classify and convert invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			company := invoice.Company{Name: f.companyName, TRN: f.companyTRN}
			return c.withText(cmd, f, func(a *app.App, source, text string) (any, error) {
				return a.Invoices.NormalizeText(contextOf(cmd), source, text, company), nil
			})
		},
	}
	invoices.Flags().StringVar(&f.companyName, "company-name", "", "reporting company name")
	invoices.Flags().StringVar(&f.companyTRN, "company-trn", "", "reporting company tax registration number")

	trialBalance := &cobra.Command{
		Use:   "trial-balance",
		Short: "Categorize and clean a trial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withText(cmd, f, func(a *app.App, source, text string) (any, error) {
				return a.TrialBalances.NormalizeText(contextOf(cmd), source, text), nil
			})
		},
	}

	cmd.AddCommand(transactions, invoices, trialBalance)
	return cmd
}

func (c *cli) withText(cmd *cobra.Command, f normalizeFlags, run func(a *app.App, source, text string) (any, error)) error {
	text, err := c.readInput(f.file)
	if err != nil {
		return err
	}
	source := f.source
	if source == "" {
		source = "stdin"
		if f.file != "-" {
			source = filepath.Base(f.file)
		}
	}

	a, err := app.New(contextOf(cmd), c.cfg, c.log, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := run(a, source, text)
	if err != nil {
		return err
	}
	return c.printJSON(res)
}

func (c *cli) readInput(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(c.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
