package export

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

func closedGroup(name string) *models.StrategyGroup {
	return &models.StrategyGroup{
		ID:         "g1",
		Name:       name,
		Instrument: "BANKNIFTY",
		Status:     models.GroupClosed,
		Legs: []*models.Leg{
			{
				ID: "l1", Side: models.SideShort, OptionType: models.OptionCall,
				Strike: 48500, Lots: 2, EntryPremium: 220, ExitPrice: 120,
				Status: models.LegClosed, LotSize: 15, Tag: models.TagBaseStrangle,
				Symbol: "BANKNIFTY48500CE",
			},
		},
	}
}

func TestExportClosedWritesCSV(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, zerolog.Nop())

	paths, err := exporter.ExportClosed([]*models.StrategyGroup{
		closedGroup("Aug Strangle"),
		{ID: "g2", Name: "Live", Status: models.GroupActive},
	})
	require.NoError(t, err)
	require.Len(t, paths, 1)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Status,Strategy,Side,Type,Strike,Lots,Entry Premium,Exit Price,P&L,Symbol")
	assert.Contains(t, content, "closed,base_strangle,short,CE,48500,2,220,120.00")
	// (220-120)*2*15 = 3000
	assert.Contains(t, content, "3000")
	assert.Contains(t, content, "Total P&L,3000.00")
	// File name derives from the sanitized group name.
	assert.Contains(t, paths[0], "Aug_Strangle")
}

func TestExportClosedWithNothingToExport(t *testing.T) {
	exporter := NewExporter(t.TempDir(), zerolog.Nop())

	_, err := exporter.ExportClosed([]*models.StrategyGroup{
		{ID: "g2", Name: "Live", Status: models.GroupActive},
	})
	assert.ErrorIs(t, err, apperrors.ErrNoClosedGroups)
}

func TestExportGroupMarksActiveLegs(t *testing.T) {
	exporter := NewExporter(t.TempDir(), zerolog.Nop())

	group := closedGroup("Mixed")
	group.Status = models.GroupActive
	group.Legs = append(group.Legs, &models.Leg{
		ID: "l2", Side: models.SideShort, OptionType: models.OptionPut,
		Strike: 47500, Lots: 1, EntryPremium: 180, CurrentLTP: 150,
		Status: models.LegActive, LotSize: 15, Tag: models.TagBaseStrangle,
	})

	path, err := exporter.ExportGroup(group)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "N/A (Active)")
}

func TestSanitizeFileNames(t *testing.T) {
	assert.Equal(t, "Aug_Strangle", sanitize("Aug Strangle"))
	assert.Equal(t, "a-b", sanitize("a/b"))
	assert.Equal(t, "group", sanitize("  "))
	assert.False(t, strings.ContainsAny(sanitize(`x<>:"/\|?*y`), `<>:"/\|?*`))
}
