package importer

import (
	"context"
	"fmt"

	"github.com/searchlightseo/searchlight/internal/meta"
)

// DryRunKey previews what one clone spec would do.
type DryRunKey struct {
	OldKey string
	Field  string
	Rows   int64 // rows carrying the competitor key
	New    int64 // rows whose entity does not yet have the destination field
}

// DryRunImport reports how many rows each clone spec would copy, without
// writing anything.
func (r *Runner) DryRunImport(ctx context.Context, source Source) ([]DryRunKey, error) {
	if err := r.ready(source); err != nil {
		return nil, err
	}

	keys := make([]DryRunKey, 0, len(source.CloneKeys))
	for _, spec := range source.CloneKeys {
		var rows int64
		if err := r.DB.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM content_meta WHERE meta_key = $1`,
			spec.OldKey,
		).Scan(&rows); err != nil {
			return nil, fmt.Errorf("failed to count %s rows: %w", spec.OldKey, err)
		}

		var fresh int64
		if err := r.DB.QueryRowContext(
			ctx,
			`SELECT COUNT(*)
			 FROM content_meta src
			 WHERE src.meta_key = $1
			   AND NOT EXISTS (
			     SELECT 1 FROM content_meta dst
			     WHERE dst.meta_key = $2
			       AND dst.entity_id = src.entity_id
			   )`,
			spec.OldKey,
			meta.FullKey(spec.NewField),
		).Scan(&fresh); err != nil {
			return nil, fmt.Errorf("failed to count new %s rows: %w", spec.OldKey, err)
		}

		keys = append(keys, DryRunKey{
			OldKey: spec.OldKey,
			Field:  spec.NewField,
			Rows:   rows,
			New:    fresh,
		})
	}

	return keys, nil
}
