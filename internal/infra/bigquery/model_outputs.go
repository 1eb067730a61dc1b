package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/repair"
)

// ModelOutputRow is one unrepairable model answer.
type ModelOutputRow struct {
	OutputID string `bigquery:"output_id"` // REQUIRED
	Source   string `bigquery:"source"`    // REQUIRED

	ModelName string `bigquery:"model_name"` // REQUIRED

	RawText      string              `bigquery:"raw_text"`      // REQUIRED
	RepairedText bigquery.NullString `bigquery:"repaired_text"` // NULLABLE
	ParseError   bigquery.NullString `bigquery:"parse_error"`   // NULLABLE

	CreatedTS time.Time         `bigquery:"created_ts"` // REQUIRED
	Metadata  bigquery.NullJSON `bigquery:"metadata"`   // NULLABLE
}

func newModelOutputRow(f repair.Failure, modelName string, now time.Time) *ModelOutputRow {
	row := &ModelOutputRow{
		OutputID:  uuid.NewString(),
		Source:    f.Source,
		ModelName: modelName,
		RawText:   truncate(f.Original, maxTextLen),
		CreatedTS: now,
	}
	if f.Repaired != "" {
		row.RepairedText = bigquery.NullString{StringVal: truncate(f.Repaired, maxTextLen), Valid: true}
	}
	if f.Err != nil {
		row.ParseError = bigquery.NullString{StringVal: truncate(f.Err.Error(), maxErrLen), Valid: true}
	}

	meta, _ := json.Marshal(map[string]any{
		"raw_len":       len(f.Original),
		"repaired_len":  len(f.Repaired),
		"raw_truncated": len(f.Original) > maxTextLen,
	})
	row.Metadata = bigquery.NullJSON{JSONVal: string(meta), Valid: true}
	return row
}

// Archive inserts the failure into model_outputs. It implements
// repair.FailureSink.
func (r *Repository) Archive(ctx context.Context, f repair.Failure) error {
	return r.InsertModelOutput(ctx, newModelOutputRow(f, r.modelName, time.Now()))
}

// InsertModelOutput inserts a single ModelOutputRow.
func (r *Repository) InsertModelOutput(ctx context.Context, row *ModelOutputRow) error {
	sql := `
		INSERT INTO ` + r.table(modelOutputsTable) + ` (
			output_id, source, model_name,
			raw_text, repaired_text, parse_error,
			created_ts, metadata
		)
		VALUES (
			@output_id, @source, @model_name,
			@raw_text, @repaired_text, @parse_error,
			@created_ts, @metadata
		)
	`
	params := []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "source", Value: row.Source},
		{Name: "model_name", Value: row.ModelName},
		{Name: "raw_text", Value: row.RawText},
		{Name: "repaired_text", Value: row.RepairedText},
		{Name: "parse_error", Value: row.ParseError},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "metadata", Value: row.Metadata},
	}

	if err := r.exec(ctx, sql, params); err != nil {
		return fmt.Errorf("InsertModelOutput: %w", err)
	}
	return nil
}

var _ repair.FailureSink = (*Repository)(nil)
