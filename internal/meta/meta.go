// Package meta owns Searchlight's destination meta-key namespace: the
// _searchlight_ prefix, the registry of known SEO fields, and single-value
// read/write semantics over the content_meta table.
package meta

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/searchlightseo/searchlight/internal/store"
)

// KeyPrefix namespaces every key Searchlight writes. Import clones rename
// competitor keys under this prefix; cleanup never touches it.
const KeyPrefix = "_searchlight_"

// ErrUnknownField is returned for short keys outside the field registry.
var ErrUnknownField = errors.New("unknown meta field")

// fieldDefaults registers every destination field with its default value.
// A stored value equal to the default is represented by deleting the row.
var fieldDefaults = map[string]string{
	"title":               "",
	"metadesc":            "",
	"canonical":           "",
	"focus-keyword":       "",
	"robots-noindex":      "",
	"robots-nofollow":     "",
	"og-title":            "",
	"og-description":      "",
	"og-image":            "",
	"twitter-title":       "",
	"twitter-description": "",
}

// FullKey returns the stored key for a short field name.
func FullKey(short string) string {
	return KeyPrefix + short
}

// IsKnownField reports whether short names a registered destination field.
func IsKnownField(short string) bool {
	_, ok := fieldDefaults[short]
	return ok
}

// Fields returns the registered short field names, sorted.
func Fields() []string {
	fields := make([]string, 0, len(fieldDefaults))
	for field := range fieldDefaults {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Service reads and writes Searchlight fields with single-value semantics:
// one logical value per (entity, field), empty string when unset.
type Service struct {
	store *store.MetaStore
}

func NewService(metaStore *store.MetaStore) *Service {
	return &Service{store: metaStore}
}

// GetValue returns the stored value for a field, or its default when no row
// exists.
func (s *Service) GetValue(ctx context.Context, entityID int64, short string) (string, error) {
	if s == nil || s.store == nil {
		return "", fmt.Errorf("meta service is not configured")
	}

	short, def, err := normalizeField(short)
	if err != nil {
		return "", err
	}

	record, err := s.store.Get(ctx, entityID, FullKey(short))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return def, nil
		}
		return "", fmt.Errorf("failed to read %s: %w", short, err)
	}

	return record.MetaValue, nil
}

// SetValue stores a field value. Setting a field to its default deletes the
// backing row instead of storing the default.
func (s *Service) SetValue(ctx context.Context, entityID int64, short, value string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("meta service is not configured")
	}

	short, def, err := normalizeField(short)
	if err != nil {
		return err
	}

	if value == def {
		if _, err := s.store.Delete(ctx, entityID, FullKey(short)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", short, err)
		}
		return nil
	}

	if err := s.store.Set(ctx, entityID, FullKey(short), value); err != nil {
		return fmt.Errorf("failed to set %s: %w", short, err)
	}

	return nil
}

// MaybeSet writes a field only when the incoming value is non-default and the
// field is currently unset. It reports whether a write happened. Import
// transforms use it to stay additive.
func (s *Service) MaybeSet(ctx context.Context, entityID int64, short, value string) (bool, error) {
	if s == nil || s.store == nil {
		return false, fmt.Errorf("meta service is not configured")
	}

	short, def, err := normalizeField(short)
	if err != nil {
		return false, err
	}

	if value == def {
		return false, nil
	}

	current, err := s.GetValue(ctx, entityID, short)
	if err != nil {
		return false, err
	}
	if current != def {
		return false, nil
	}

	if err := s.store.Set(ctx, entityID, FullKey(short), value); err != nil {
		return false, fmt.Errorf("failed to set %s: %w", short, err)
	}

	return true, nil
}

// Delete removes a field's backing rows.
func (s *Service) Delete(ctx context.Context, entityID int64, short string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("meta service is not configured")
	}

	short, _, err := normalizeField(short)
	if err != nil {
		return err
	}

	if _, err := s.store.Delete(ctx, entityID, FullKey(short)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", short, err)
	}

	return nil
}

// ListValues returns every set Searchlight field for an entity, keyed by
// short field name.
func (s *Service) ListValues(ctx context.Context, entityID int64) (map[string]string, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("meta service is not configured")
	}

	records, err := s.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meta values: %w", err)
	}

	values := make(map[string]string)
	for _, record := range records {
		short, ok := strings.CutPrefix(record.MetaKey, KeyPrefix)
		if !ok || !IsKnownField(short) {
			continue
		}
		// Lowest meta_id wins; records arrive ordered by meta_id per key.
		if _, seen := values[short]; seen {
			continue
		}
		values[short] = record.MetaValue
	}

	return values, nil
}

func normalizeField(short string) (string, string, error) {
	normalized := strings.TrimSpace(strings.ToLower(short))
	def, ok := fieldDefaults[normalized]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownField, short)
	}
	return normalized, def, nil
}
