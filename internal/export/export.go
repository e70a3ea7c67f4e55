// Package export writes closed strategy groups to CSV files for
// post-trade review.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/internal/stats"
)

// LegRecord is one CSV row of an exported group.
type LegRecord struct {
	Status string  `csv:"Status"`
	Tag    string  `csv:"Strategy"`
	Side   string  `csv:"Side"`
	Type   string  `csv:"Type"`
	Strike float64 `csv:"Strike"`
	Lots   int     `csv:"Lots"`
	Entry  float64 `csv:"Entry Premium"`
	Exit   string  `csv:"Exit Price"`
	PnL    float64 `csv:"P&L"`
	Symbol string  `csv:"Symbol"`
}

// Exporter writes group reports into a target directory.
type Exporter struct {
	dir    string
	logger zerolog.Logger
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string, logger zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// ExportClosed writes one CSV per closed group and returns the written
// paths. Returns ErrNoClosedGroups when there is nothing to export.
func (e *Exporter) ExportClosed(groups []*models.StrategyGroup) ([]string, error) {
	var closed []*models.StrategyGroup
	for _, g := range groups {
		if g.Status == models.GroupClosed {
			closed = append(closed, g)
		}
	}
	if len(closed) == 0 {
		return nil, apperrors.ErrNoClosedGroups
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	stamp := time.Now().Format("20060102")
	var paths []string
	for _, group := range closed {
		path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.csv", sanitize(group.Name), stamp))
		if err := e.writeGroup(path, group); err != nil {
			return paths, err
		}
		e.logger.Info().Str("group", group.Name).Str("path", path).Msg("Group exported")
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportGroup writes a single group, closed or not, and returns the path.
func (e *Exporter) ExportGroup(group *models.StrategyGroup) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.csv", sanitize(group.Name), time.Now().Format("20060102")))
	if err := e.writeGroup(path, group); err != nil {
		return "", err
	}
	return path, nil
}

func (e *Exporter) writeGroup(path string, group *models.StrategyGroup) error {
	fallback := models.DefaultLotSize(group.Instrument)

	records := make([]LegRecord, 0, len(group.Legs))
	for _, leg := range group.Legs {
		exit := "N/A (Active)"
		if !leg.IsActive() {
			exit = fmt.Sprintf("%.2f", leg.ExitPrice)
		}
		records = append(records, LegRecord{
			Status: string(leg.Status),
			Tag:    string(leg.Tag),
			Side:   string(leg.Side),
			Type:   string(leg.OptionType),
			Strike: leg.Strike,
			Lots:   leg.EffectiveLots(),
			Entry:  leg.EntryPremium,
			Exit:   exit,
			PnL:    leg.PnL(fallback),
			Symbol: leg.Symbol,
		})
	}

	agg := stats.Compute(group)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(&records, f); err != nil {
		return fmt.Errorf("writing export rows: %w", err)
	}
	// Trailing summary line so the sheet totals without formulas.
	if _, err := fmt.Fprintf(f, "\nTotal P&L,%.2f\n", agg.TotalPnL); err != nil {
		return fmt.Errorf("writing export summary: %w", err)
	}
	return nil
}

// sanitize makes a group name safe as a file name.
func sanitize(name string) string {
	replacer := strings.NewReplacer(
		" ", "_", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	out := replacer.Replace(strings.TrimSpace(name))
	if out == "" {
		out = "group"
	}
	return out
}
