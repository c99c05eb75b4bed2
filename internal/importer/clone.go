package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/searchlightseo/searchlight/internal/meta"
)

const stagingTable = "meta_clone_stage"

// ErrInsufficientPrivileges is returned when the staging table cannot be
// created, which in practice means the database user lacks the TEMP
// privilege.
var ErrInsufficientPrivileges = errors.New("insufficient database privileges to create the staging table")

// CloneResult reports what one key clone did.
type CloneResult struct {
	OldKey string
	Field  string
	Staged int64 // rows found under the competitor key
	Copied int64 // rows inserted under the Searchlight key
}

// cloneMetaKey copies every row carrying spec.OldKey to the prefixed
// destination field, skipping entities that already have the destination
// key. The whole clone runs in one transaction staged through a temporary
// table, so a failed key leaves no partial writes behind.
func cloneMetaKey(ctx context.Context, db *sql.DB, spec CloneSpec) (*CloneResult, error) {
	if !meta.IsKnownField(spec.NewField) {
		return nil, fmt.Errorf("clone targets unknown field %q", spec.NewField)
	}
	newKey := meta.FullKey(spec.NewField)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin clone transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Stage every row carrying the competitor key. CREATE TABLE AS is a
	// utility statement and cannot carry bind parameters, so the key is
	// quoted into the statement. ON COMMIT DROP ties the staging table's
	// lifetime to this transaction.
	createStmt := fmt.Sprintf(
		`CREATE TEMPORARY TABLE %s ON COMMIT DROP AS
		 SELECT meta_id, entity_id, meta_key, meta_value
		 FROM content_meta
		 WHERE meta_key = %s`,
		stagingTable,
		pq.QuoteLiteral(spec.OldKey),
	)
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientPrivileges, err)
	}

	var staged int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+stagingTable).Scan(&staged); err != nil {
		return nil, fmt.Errorf("failed to count staged rows for %s: %w", spec.OldKey, err)
	}

	// Keep the merge additive: drop staged rows for entities that already
	// carry the destination key.
	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM `+stagingTable+`
		  WHERE entity_id IN (
			SELECT entity_id FROM content_meta WHERE meta_key = $1
		  )`,
		newKey,
	); err != nil {
		return nil, fmt.Errorf("failed to drop already-imported rows for %s: %w", spec.OldKey, err)
	}

	// Clear the copied identity so the insert mints fresh ids.
	if _, err := tx.ExecContext(ctx, `ALTER TABLE `+stagingTable+` DROP COLUMN meta_id`); err != nil {
		return nil, fmt.Errorf("failed to clear staged identities for %s: %w", spec.OldKey, err)
	}

	// Rename to the Searchlight key.
	if _, err := tx.ExecContext(ctx, `UPDATE `+stagingTable+` SET meta_key = $1`, newKey); err != nil {
		return nil, fmt.Errorf("failed to rename staged rows for %s: %w", spec.OldKey, err)
	}

	// Whole-value conversions, in declaration order.
	for _, pair := range spec.Convert {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE `+stagingTable+` SET meta_value = $1 WHERE meta_value = $2`,
			pair.To,
			pair.From,
		); err != nil {
			return nil, fmt.Errorf("failed to convert staged values for %s: %w", spec.OldKey, err)
		}
	}

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO content_meta (entity_id, meta_key, meta_value)
		 SELECT entity_id, meta_key, meta_value FROM `+stagingTable,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to copy staged rows for %s: %w", spec.OldKey, err)
	}
	copied, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read copied row count for %s: %w", spec.OldKey, err)
	}

	// Explicit drop; ON COMMIT DROP backstops the failure paths above.
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+stagingTable); err != nil {
		return nil, fmt.Errorf("failed to drop staging table for %s: %w", spec.OldKey, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit clone of %s: %w", spec.OldKey, err)
	}
	committed = true

	return &CloneResult{
		OldKey: spec.OldKey,
		Field:  spec.NewField,
		Staged: staged,
		Copied: copied,
	}, nil
}
