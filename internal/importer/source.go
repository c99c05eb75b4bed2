package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/searchlightseo/searchlight/internal/meta"
	"github.com/searchlightseo/searchlight/internal/store"
)

// ConvertPair rewrites one staged value during a clone. Matching is
// whole-value and exact; substrings are left alone.
type ConvertPair struct {
	From string
	To   string
}

// CloneSpec names one competitor key to copy into the Searchlight namespace.
// OldKey is the competitor's stored meta_key; NewField is the destination
// short field name, prefixed at clone time. Convert pairs apply to staged
// values in declaration order.
type CloneSpec struct {
	OldKey   string
	NewField string
	Convert  []ConvertPair
}

// TransformContext gives transform steps access to competitor rows and the
// destination namespace.
type TransformContext struct {
	Meta  *meta.Service
	Store *store.MetaStore
}

// TransformFunc runs after a source's key clones succeed, unpacking values
// that cannot be cloned row-for-row (serialized composites, directive lists).
// Returned warnings mark the run partial; a returned error does too, without
// failing the run.
type TransformFunc func(ctx context.Context, tc *TransformContext) ([]string, error)

// Source describes one competitor product whose metadata Searchlight can
// detect, import and clean up.
type Source struct {
	Slug          string
	Name          string
	DetectPattern string // SQL LIKE pattern over meta_key

	CloneKeys []CloneSpec

	Transform      TransformFunc
	TransformLabel string

	// CleanupPatterns lists LIKE patterns removed on cleanup in addition to
	// DetectPattern, for stray keys outside the main prefix.
	CleanupPatterns []string
}

// Validate checks that the source is well-formed and only targets registered
// destination fields.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Slug) == "" {
		return fmt.Errorf("source slug is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("source %s: name is required", s.Slug)
	}
	if strings.TrimSpace(s.DetectPattern) == "" {
		return fmt.Errorf("source %s: detect pattern is required", s.Slug)
	}
	for _, spec := range s.CloneKeys {
		if strings.TrimSpace(spec.OldKey) == "" {
			return fmt.Errorf("source %s: clone spec is missing its source key", s.Slug)
		}
		if !meta.IsKnownField(spec.NewField) {
			return fmt.Errorf("source %s: %s targets unknown field %q", s.Slug, spec.OldKey, spec.NewField)
		}
	}
	if s.Transform != nil && strings.TrimSpace(s.TransformLabel) == "" {
		return fmt.Errorf("source %s: transform label is required", s.Slug)
	}
	return nil
}

// cleanupPatterns returns every LIKE pattern cleanup deletes for this source.
func (s Source) cleanupPatterns() []string {
	patterns := make([]string, 0, 1+len(s.CleanupPatterns))
	patterns = append(patterns, s.DetectPattern)
	patterns = append(patterns, s.CleanupPatterns...)
	return patterns
}
