package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/xuri/excelize/v2"
)

// Row is a fixture read back from a workbook, with its sheet row number.
type Row struct {
	Row int
	fixture.ScheduledMatch
}

// ReadSchedule reads the fixture list sheet. Columns are located by header
// so hand-edited sheets with reordered columns still load.
func ReadSchedule(f *excelize.File) ([]Row, error) {
	rows, err := f.GetRows(FixturesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FixturesSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", FixturesSheet)
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, h := range []string{"Date", "Time", "Venue", "Home", "Away"} {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("%s has no %q column", FixturesSheet, h)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Row
	for i, r := range rows[1:] {
		rowNum := i + 2
		home, away := cell(r, "Home"), cell(r, "Away")
		if home == "" && away == "" {
			continue
		}
		date, err := time.Parse(dateLayout, cell(r, "Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", rowNum, cell(r, "Date"))
		}
		m := fixture.ScheduledMatch{
			Match: fixture.Match{
				ID:    cell(r, "Match ID"),
				Home:  fixture.TeamID(home),
				Away:  fixture.TeamID(away),
				Label: cell(r, "Label"),
				Stage: fixture.Stage(cell(r, "Stage")),
				Group: cell(r, "Group"),
			},
			Date:     fixture.Day(date),
			TimeSlot: cell(r, "Time"),
			Venue:    cell(r, "Venue"),
		}
		if s := cell(r, "Round"); s != "" {
			if m.Round, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("row %d: invalid round %q", rowNum, s)
			}
		}
		out = append(out, Row{Row: rowNum, ScheduledMatch: m})
	}
	return out, nil
}

// UpdateTeamSheets rebuilds every team sheet in the workbook at path from
// its fixture list, so hand edits to the list show up on the team sheets.
func UpdateTeamSheets(path string, teams []fixture.TeamID) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := ReadSchedule(f)
	if err != nil {
		return err
	}
	matches := make([]fixture.ScheduledMatch, len(rows))
	for i, r := range rows {
		matches[i] = r.ScheduledMatch
	}

	for _, team := range teams {
		if idx, _ := f.GetSheetIndex(sheetName(string(team))); idx >= 0 {
			if err := f.DeleteSheet(sheetName(string(team))); err != nil {
				return fmt.Errorf("team %s: %w", team, err)
			}
		}
	}
	if err := writeTeamSheets(f, teams, matches); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}
	return f.Save()
}
