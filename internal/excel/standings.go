package excel

import (
	"fmt"
	"sort"

	"github.com/derekprior/fixtures/internal/playoff"
	"github.com/xuri/excelize/v2"
)

// PlayoffsSheet lists the playoff fixtures.
const PlayoffsSheet = "Playoffs"

var standingsHeaders = []string{"Pos", "Team", "P", "W", "L", "T", "NR", "Pts", "Bonus", "RF", "RA", "OF", "OB", "NRR"}

// StandingsSheet names the sheet for a group's table.
func StandingsSheet(group string) string {
	if group == "" {
		return "Standings"
	}
	return sheetName("Standings " + group)
}

// WriteStandings creates a workbook with one ranked table per group and,
// when fixtures is non-empty, a playoffs sheet.
func WriteStandings(tables playoff.Tables, fixtures []playoff.Fixture) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	groups := make([]string, 0, len(tables))
	for g := range tables {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	cellStyle := bodyStyle(f, false)
	for _, g := range groups {
		sheet := StandingsSheet(g)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("group %s: %w", g, err)
		}
		writeHeaders(f, sheet, standingsHeaders)
		for i, s := range tables[g] {
			row := i + 2
			values := []interface{}{
				i + 1, string(s.Team), s.Played, s.Won, s.Lost, s.Drawn, s.NoResult,
				s.Points, s.BonusPoints, s.RunsScored, s.RunsConceded,
				s.OversFaced.String(), s.OversBowled.String(), fmt.Sprintf("%+.3f", s.NRR),
			}
			if err := f.SetSheetRow(sheet, cellRef(1, row), &values); err != nil {
				return nil, err
			}
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(standingsHeaders), row), cellStyle)
			}
		}
		f.SetColWidth(sheet, "A", "A", 8)
		f.SetColWidth(sheet, "B", "B", 24)
		f.SetColWidth(sheet, "C", "N", 10)
	}

	if len(fixtures) > 0 {
		if err := writePlayoffs(f, fixtures); err != nil {
			return nil, fmt.Errorf("writing playoffs: %w", err)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writePlayoffs(f *excelize.File, fixtures []playoff.Fixture) error {
	sheet := PlayoffsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"Slot", "Stage", "Home", "Away", "Winner"}
	writeHeaders(f, sheet, headers)
	cellStyle := bodyStyle(f, false)

	for i, fx := range fixtures {
		row := i + 2
		home, away := string(fx.Home), string(fx.Away)
		if home == "" {
			home = fx.Slot.Home.String()
		}
		if away == "" {
			away = fx.Slot.Away.String()
		}
		values := []interface{}{fx.Slot.Name, string(fx.Slot.Stage), home, away, string(fx.Winner)}
		if err := f.SetSheetRow(sheet, cellRef(1, row), &values); err != nil {
			return err
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
		}
	}
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 14)
	f.SetColWidth(sheet, "C", "E", 24)
	return nil
}
