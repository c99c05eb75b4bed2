package importer

import (
	"context"
	"encoding/json"
	"fmt"
)

// seotkSocial is the shape of the _seotk_social JSON composite.
type seotkSocial struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// SEOToolkit imports data left behind by the SEO Toolkit plugin. Toolkit
// stores flat keys plus one JSON composite for social settings; the flat keys
// clone directly and the composite is unpacked by the transform.
func SEOToolkit() Source {
	return Source{
		Slug:          "seo-toolkit",
		Name:          "SEO Toolkit",
		DetectPattern: `\_seotk\_%`,
		CloneKeys: []CloneSpec{
			{OldKey: "_seotk_title", NewField: "title"},
			{OldKey: "_seotk_description", NewField: "metadesc"},
			{OldKey: "_seotk_canonical", NewField: "canonical"},
			{OldKey: "_seotk_noindex", NewField: "robots-noindex", Convert: []ConvertPair{{From: "on", To: "1"}}},
			{OldKey: "_seotk_nofollow", NewField: "robots-nofollow", Convert: []ConvertPair{{From: "on", To: "1"}}},
		},
		Transform:      importSEOToolkitSocial,
		TransformLabel: "social settings",
	}
}

// importSEOToolkitSocial unpacks _seotk_social composites into the og-* and
// twitter-* fields, additively. Entities with unreadable composites are
// skipped with a warning.
func importSEOToolkitSocial(ctx context.Context, tc *TransformContext) ([]string, error) {
	records, err := tc.Store.ListByKey(ctx, "_seotk_social")
	if err != nil {
		return nil, fmt.Errorf("failed to load social settings: %w", err)
	}

	var warnings []string
	seen := make(map[int64]bool)
	for _, record := range records {
		if seen[record.EntityID] {
			continue
		}
		seen[record.EntityID] = true

		var social seotkSocial
		if err := json.Unmarshal([]byte(record.MetaValue), &social); err != nil {
			warnings = append(warnings, fmt.Sprintf("entity %d: social settings are not valid JSON", record.EntityID))
			continue
		}

		fields := []struct {
			name  string
			value string
		}{
			{"og-title", social.Title},
			{"og-description", social.Description},
			{"og-image", social.Image},
			{"twitter-title", social.Title},
			{"twitter-description", social.Description},
		}
		for _, field := range fields {
			if _, err := tc.Meta.MaybeSet(ctx, record.EntityID, field.name, field.value); err != nil {
				warnings = append(warnings, fmt.Sprintf("entity %d: failed to set %s: %v", record.EntityID, field.name, err))
			}
		}
	}

	return warnings, nil
}
