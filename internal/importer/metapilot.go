package importer

import (
	"context"
	"fmt"
	"strings"
)

// MetaPilot imports data left behind by the MetaPilot plugin. MetaPilot
// stores its keys without a leading underscore and keeps robots directives
// as one comma-separated list.
func MetaPilot() Source {
	return Source{
		Slug:          "metapilot",
		Name:          "MetaPilot",
		DetectPattern: `metapilot\_%`,
		CloneKeys: []CloneSpec{
			{OldKey: "metapilot_title", NewField: "title"},
			{OldKey: "metapilot_description", NewField: "metadesc"},
			{OldKey: "metapilot_canonical_url", NewField: "canonical"},
			{OldKey: "metapilot_focus_keyword", NewField: "focus-keyword"},
			{OldKey: "metapilot_og_title", NewField: "og-title"},
			{OldKey: "metapilot_og_description", NewField: "og-description"},
			{OldKey: "metapilot_og_image", NewField: "og-image"},
			{OldKey: "metapilot_twitter_title", NewField: "twitter-title"},
			{OldKey: "metapilot_twitter_description", NewField: "twitter-description"},
		},
		Transform:      importMetaPilotRobots,
		TransformLabel: "robots directives",
		// Versions before 2.0 used the mp_seo_ prefix.
		CleanupPatterns: []string{`mp\_seo\_%`},
	}
}

// importMetaPilotRobots splits metapilot_robots lists ("noindex, nofollow")
// into the boolean robots fields. Directives that are already the default
// store nothing.
func importMetaPilotRobots(ctx context.Context, tc *TransformContext) ([]string, error) {
	records, err := tc.Store.ListByKey(ctx, "metapilot_robots")
	if err != nil {
		return nil, fmt.Errorf("failed to load robots directives: %w", err)
	}

	var warnings []string
	seen := make(map[int64]bool)
	for _, record := range records {
		if seen[record.EntityID] {
			continue
		}
		seen[record.EntityID] = true

		for _, directive := range strings.Split(record.MetaValue, ",") {
			switch strings.ToLower(strings.TrimSpace(directive)) {
			case "noindex":
				if _, err := tc.Meta.MaybeSet(ctx, record.EntityID, "robots-noindex", "1"); err != nil {
					warnings = append(warnings, fmt.Sprintf("entity %d: failed to set robots-noindex: %v", record.EntityID, err))
				}
			case "nofollow":
				if _, err := tc.Meta.MaybeSet(ctx, record.EntityID, "robots-nofollow", "1"); err != nil {
					warnings = append(warnings, fmt.Sprintf("entity %d: failed to set robots-nofollow: %v", record.EntityID, err))
				}
			case "", "index", "follow":
				// Defaults; nothing to store.
			default:
				warnings = append(warnings, fmt.Sprintf("entity %d: unknown robots directive %q", record.EntityID, strings.TrimSpace(directive)))
			}
		}
	}

	return warnings, nil
}
