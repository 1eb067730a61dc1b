package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/gcs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

func (c *cli) uploadCommand() *cobra.Command {
	var bucket, object, file string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a local document to GCS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bucket == "" || file == "" {
				return errors.New("--bucket and --file are required")
			}
			if object == "" {
				object = filepath.Base(file)
			}
			uri := "gs://" + bucket + "/" + object

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %s: %w", file, err)
			}
			defer f.Close()

			ctx := contextOf(cmd)
			client, err := gcs.NewClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			c.log.Info().Str("file", file).Str("gcs_uri", uri).Msg("Uploading file to GCS")

			written, err := client.Upload(ctx, uri, pipeline.DetectMIMEType(file), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Uploaded %s to %s (%d bytes)\n", file, uri, written)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "GCS bucket name")
	cmd.Flags().StringVar(&object, "object", "", "object name (defaults to the file name)")
	cmd.Flags().StringVar(&file, "file", "", "local file to upload")
	return cmd
}
