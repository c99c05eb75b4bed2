package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const metaSelectColumns = `meta_id, entity_id, meta_key, meta_value`

// MetaRecord is one row of the content_meta table. A single entity may own
// several rows with the same meta_key; readers treat the lowest meta_id as
// the record of note.
type MetaRecord struct {
	MetaID    int64
	EntityID  int64
	MetaKey   string
	MetaValue string
}

type MetaStore struct {
	db *sql.DB
}

func NewMetaStore(db *sql.DB) *MetaStore {
	return &MetaStore{db: db}
}

// Get returns the first record for (entityID, key), ordered by meta_id.
func (s *MetaStore) Get(ctx context.Context, entityID int64, key string) (*MetaRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("meta store is not configured")
	}

	normalizedKey, err := normalizeMetaScope(entityID, key)
	if err != nil {
		return nil, err
	}

	record, err := scanMetaRow(s.db.QueryRowContext(
		ctx,
		`SELECT `+metaSelectColumns+`
		 FROM content_meta
		 WHERE entity_id = $1
		   AND meta_key = $2
		 ORDER BY meta_id ASC
		 LIMIT 1`,
		entityID,
		normalizedKey,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("meta record not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get meta record: %w", err)
	}

	return record, nil
}

// ListByEntity returns every record an entity owns, ordered by key then id.
func (s *MetaStore) ListByEntity(ctx context.Context, entityID int64) ([]MetaRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("meta store is not configured")
	}
	if entityID <= 0 {
		return nil, fmt.Errorf("entity_id must be positive")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+metaSelectColumns+`
		 FROM content_meta
		 WHERE entity_id = $1
		 ORDER BY meta_key ASC, meta_id ASC`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meta records: %w", err)
	}
	defer rows.Close()

	return collectMetaRows(rows)
}

// ListByKey returns every record carrying the given key across all entities,
// ordered by entity then id. Transform passes use it to walk composite
// source values one entity at a time.
func (s *MetaStore) ListByKey(ctx context.Context, key string) ([]MetaRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("meta store is not configured")
	}

	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return nil, fmt.Errorf("meta_key is required")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+metaSelectColumns+`
		 FROM content_meta
		 WHERE meta_key = $1
		 ORDER BY entity_id ASC, meta_id ASC`,
		normalizedKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meta records by key: %w", err)
	}
	defer rows.Close()

	return collectMetaRows(rows)
}

// Set updates every row for (entityID, key) to the given value, inserting a
// fresh row when none exists.
func (s *MetaStore) Set(ctx context.Context, entityID int64, key, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("meta store is not configured")
	}

	normalizedKey, err := normalizeMetaScope(entityID, key)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE content_meta
		    SET meta_value = $3
		  WHERE entity_id = $1
		    AND meta_key = $2`,
		entityID,
		normalizedKey,
		value,
	)
	if err != nil {
		return fmt.Errorf("failed to update meta record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read updated meta row count: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO content_meta (entity_id, meta_key, meta_value)
		 VALUES ($1, $2, $3)`,
		entityID,
		normalizedKey,
		value,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meta record: %w", err)
	}

	return nil
}

// Delete removes every row for (entityID, key) and reports how many went away.
func (s *MetaStore) Delete(ctx context.Context, entityID int64, key string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("meta store is not configured")
	}

	normalizedKey, err := normalizeMetaScope(entityID, key)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM content_meta
		  WHERE entity_id = $1
		    AND meta_key = $2`,
		entityID,
		normalizedKey,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete meta records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted meta row count: %w", err)
	}

	return rowsAffected, nil
}

// CountMatching counts rows whose meta_key matches the LIKE pattern.
func (s *MetaStore) CountMatching(ctx context.Context, pattern string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("meta store is not configured")
	}

	normalizedPattern := strings.TrimSpace(pattern)
	if normalizedPattern == "" {
		return 0, fmt.Errorf("meta_key pattern is required")
	}

	var count int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM content_meta WHERE meta_key LIKE $1`,
		normalizedPattern,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching meta records: %w", err)
	}

	return count, nil
}

// DeleteMatching removes rows whose meta_key matches any of the LIKE
// patterns. Deleting zero rows is not an error.
func (s *MetaStore) DeleteMatching(ctx context.Context, patterns ...string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("meta store is not configured")
	}

	placeholders := make([]string, 0, len(patterns))
	args := make([]any, 0, len(patterns))
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		args = append(args, trimmed)
		placeholders = append(placeholders, fmt.Sprintf("meta_key LIKE $%d", len(args)))
	}
	if len(placeholders) == 0 {
		return 0, fmt.Errorf("at least one meta_key pattern is required")
	}

	query := fmt.Sprintf(
		`DELETE FROM content_meta WHERE %s`,
		strings.Join(placeholders, " OR "),
	)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matching meta records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted meta row count: %w", err)
	}

	return rowsAffected, nil
}

type metaRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetaRow(scanner metaRowScanner) (*MetaRecord, error) {
	var (
		record MetaRecord
		value  sql.NullString
	)

	if err := scanner.Scan(
		&record.MetaID,
		&record.EntityID,
		&record.MetaKey,
		&value,
	); err != nil {
		return nil, err
	}

	if value.Valid {
		record.MetaValue = value.String
	}

	return &record, nil
}

func collectMetaRows(rows *sql.Rows) ([]MetaRecord, error) {
	records := make([]MetaRecord, 0)
	for rows.Next() {
		record, scanErr := scanMetaRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan meta row: %w", scanErr)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading meta rows: %w", err)
	}

	return records, nil
}

func normalizeMetaScope(entityID int64, key string) (string, error) {
	if entityID <= 0 {
		return "", fmt.Errorf("entity_id must be positive")
	}

	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return "", fmt.Errorf("meta_key is required")
	}

	return normalizedKey, nil
}
