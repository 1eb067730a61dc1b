package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/config"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/logger"
)

// cli carries what every subcommand needs once the root pre-run has loaded it.
type cli struct {
	cfg *config.Config
	log zerolog.Logger
	out io.Writer
	in  io.Reader
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stdin).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer, in io.Reader) *cobra.Command {
	c := &cli{out: out, in: in}
	var verbose bool

	root := &cobra.Command{
		Use:          "docuflow",
		Short:        "Normalize AI-extracted bank statements, invoices and trial balances",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			c.cfg = cfg
			c.log = logger.NewWithWriter(cmd.ErrOrStderr()).Level(logger.ParseLevel(level))
			cmd.SetContext(logger.WithContext(cmd.Context(), c.log))
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(c.normalizeCommands())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.uploadCommand())
	return root
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
