package importer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusDefaultMessages(t *testing.T) {
	require.Equal(t, "Detect failed.", NewStatus(ActionDetect, false).Msg())
	require.Equal(t, "Import completed.", NewStatus(ActionImport, true).Msg())
	require.Equal(t, "Cleanup completed.", NewStatus(ActionCleanup, true).Msg())

	partial := NewStatus(ActionImport, true).MarkPartial("entity 3: bad data")
	require.Equal(t, "Import completed with warnings.", partial.Msg())
}

func TestStatusExplicitMessageWins(t *testing.T) {
	status := NewStatus(ActionImport, false).SetMessage("  No SEO Toolkit data found to import.  ")
	require.Equal(t, "No SEO Toolkit data found to import.", status.Msg())
}

func TestStatusChaining(t *testing.T) {
	status := NewStatus(ActionDetect, false).SetStatus(true).SetMessage("found")
	require.True(t, status.Success)
	require.Equal(t, "found", status.Msg())
}

func TestMarkPartialIgnoresBlankWarnings(t *testing.T) {
	status := NewStatus(ActionImport, true).MarkPartial("", "   ")
	require.False(t, status.Partial)
	require.Empty(t, status.Warnings)

	status.MarkPartial("entity 9: skipped", "")
	require.True(t, status.Partial)
	require.Equal(t, []string{"entity 9: skipped"}, status.Warnings)
}
