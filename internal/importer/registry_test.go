package importer

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/searchlightseo/searchlight/internal/meta"
)

// likeToRegexp compiles a SQL LIKE pattern (backslash escape) to a regexp so
// tests can evaluate pattern coverage without a database.
func likeToRegexp(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			sb.WriteString(".*")
		case r == '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	require.NoError(t, err)
	return re
}

func TestDefaultRegistrySources(t *testing.T) {
	registry := DefaultRegistry()
	sources := registry.All()
	require.Len(t, sources, 4)

	slugs := make([]string, 0, len(sources))
	for _, source := range sources {
		require.NoError(t, source.Validate())
		slugs = append(slugs, source.Slug)
	}
	require.Equal(t, []string{"seo-toolkit", "metapilot", "pageranger", "apex-seo"}, slugs)
}

func TestRegistryBySlug(t *testing.T) {
	registry := DefaultRegistry()

	source, err := registry.BySlug("  SEO-Toolkit ")
	require.NoError(t, err)
	require.Equal(t, "SEO Toolkit", source.Name)

	_, err = registry.BySlug("rank-rocket")
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestNewRegistryRejectsDuplicateSlugs(t *testing.T) {
	_, err := NewRegistry(PageRanger(), PageRanger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate source slug")
}

func TestNewRegistryRejectsInvalidSource(t *testing.T) {
	bad := Source{
		Slug:          "broken",
		Name:          "Broken",
		DetectPattern: `\_broken\_%`,
		CloneKeys:     []CloneSpec{{OldKey: "_broken_title", NewField: "page-speed"}},
	}
	_, err := NewRegistry(bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

// Cleanup must never be able to delete Searchlight's own records, no matter
// which source runs it.
func TestCleanupPatternsNeverMatchSearchlightKeys(t *testing.T) {
	for _, source := range DefaultRegistry().All() {
		for _, pattern := range source.cleanupPatterns() {
			re := likeToRegexp(t, pattern)
			for _, field := range meta.Fields() {
				fullKey := meta.FullKey(field)
				require.False(t, re.MatchString(fullKey),
					"source %s pattern %s matches destination key %s", source.Slug, pattern, fullKey)
			}
		}
	}
}

// Every key a source clones must be removed by its own cleanup, otherwise
// import-then-cleanup would strand competitor rows.
func TestCloneKeysAreCoveredByCleanup(t *testing.T) {
	for _, source := range DefaultRegistry().All() {
		patterns := make([]*regexp.Regexp, 0)
		for _, pattern := range source.cleanupPatterns() {
			patterns = append(patterns, likeToRegexp(t, pattern))
		}
		for _, spec := range source.CloneKeys {
			matched := false
			for _, re := range patterns {
				if re.MatchString(spec.OldKey) {
					matched = true
					break
				}
			}
			require.True(t, matched, "source %s: cleanup misses clone key %s", source.Slug, spec.OldKey)
		}
	}
}

func TestSourceValidateRequiresTransformLabel(t *testing.T) {
	source := SEOToolkit()
	source.TransformLabel = ""
	require.Error(t, source.Validate())
}
