package excel

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/schedule"
	"github.com/xuri/excelize/v2"
)

// Sheet names shared by the writer and the reader.
const (
	MasterSheet   = "Master Schedule"
	FixturesSheet = "Fixtures"
)

const dateLayout = "01/02/2006"

var fixtureHeaders = []string{"Match ID", "Date", "Day", "Time", "Venue", "Round", "Label", "Stage", "Group", "Home", "Away"}

// Generate creates a workbook with the master grid, a flat fixture list and
// one sheet per team.
func Generate(w fixture.Window, result *schedule.Result, teams []fixture.TeamID) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeMasterSheet(f, w, result); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeFixturesSheet(f, result.Matches); err != nil {
		return nil, fmt.Errorf("writing fixtures sheet: %w", err)
	}

	if err := writeTeamSheets(f, teams, result.Matches); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeMasterSheet(f *excelize.File, w fixture.Window, result *schedule.Result) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Headers: Date, Day, Time, <venue1>, <venue2>, ...
	headers := []string{"Date", "Day", "Time"}
	for _, v := range w.Venues {
		headers = append(headers, v.Name)
	}
	writeHeaders(f, sheet, headers)

	cellStyle := bodyStyle(f, false)
	venueCellStyle := bodyStyle(f, true)

	type slotKey struct {
		date  time.Time
		time  string
		venue string
	}
	booked := make(map[slotKey]fixture.ScheduledMatch)
	for _, m := range result.Matches {
		booked[slotKey{fixture.Day(m.Date), m.TimeSlot, m.Venue}] = m
	}

	times := schedule.SlotTimes(w.Venues)
	row := 2
	for _, date := range w.Dates() {
		reserve := w.IsReserve(date)
		for _, ts := range times {
			f.SetCellValue(sheet, cellRef(1, row), date.Format(dateLayout))
			f.SetCellValue(sheet, cellRef(2, row), date.Format("Mon"))
			f.SetCellValue(sheet, cellRef(3, row), ts)

			for vi, v := range w.Venues {
				if !offers(v, ts) {
					continue
				}
				col := vi + 4 // 1-indexed, after Date/Day/Time
				switch m, ok := booked[slotKey{date, ts, v.Name}]; {
				case ok:
					f.SetCellValue(sheet, cellRef(col, row), fmt.Sprintf("%s @ %s", m.Away, m.Home))
				case w.VenueBlackouts.Blocked(v.Name, date):
					f.SetCellValue(sheet, cellRef(col, row), "Blackout")
				case reserve:
					f.SetCellValue(sheet, cellRef(col, row), "Reserve")
				}
			}

			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(3, row), cellStyle)
			}
			if venueCellStyle != 0 && len(w.Venues) > 0 {
				f.SetCellStyle(sheet, cellRef(4, row), cellRef(len(headers), row), venueCellStyle)
			}
			row++
		}
	}

	// Set column widths (sized for Arial 16)
	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "B", "B", 8)
	f.SetColWidth(sheet, "C", "C", 10)
	for i := range w.Venues {
		col := colLetter(i + 4)
		f.SetColWidth(sheet, col, col, 30)
	}

	// Conditional formatting: non-match cells in venue columns get light red
	lastRow := row - 1
	if lastRow < 2 {
		return nil
	}
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	for i := range w.Venues {
		col := colLetter(i + 4)
		cellRange := fmt.Sprintf("%s2:%s%d", col, col, lastRow)
		topCell := fmt.Sprintf("%s2", col)
		formula := fmt.Sprintf(`AND(%s<>"",ISERROR(FIND(" @ ",%s)))`, topCell, topCell)
		f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: formula,
				Format:   &redFill,
			},
		})
	}

	return nil
}

func offers(v fixture.Venue, slot string) bool {
	for _, ts := range v.TimeSlots {
		if ts == slot {
			return true
		}
	}
	return false
}

func writeFixturesSheet(f *excelize.File, matches []fixture.ScheduledMatch) error {
	sheet := FixturesSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, fixtureHeaders)
	cellStyle := bodyStyle(f, false)

	for i, m := range matches {
		row := i + 2
		values := []interface{}{
			m.ID,
			m.Date.Format(dateLayout),
			m.Date.Format("Mon"),
			m.TimeSlot,
			m.Venue,
			m.Round,
			m.Label,
			string(m.Stage),
			m.Group,
			string(m.Home),
			string(m.Away),
		}
		if err := f.SetSheetRow(sheet, cellRef(1, row), &values); err != nil {
			return err
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(fixtureHeaders), row), cellStyle)
		}
	}

	widths := map[string]float64{"A": 40, "B": 18, "C": 8, "D": 10, "E": 28, "F": 10, "G": 20, "H": 14, "I": 10, "J": 20, "K": 20}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeTeamSheets(f *excelize.File, teams []fixture.TeamID, matches []fixture.ScheduledMatch) error {
	headers := []string{"Date", "Day", "Time", "Venue", "Opponent", "Home/Away", "Match"}
	cellStyle := bodyStyle(f, false)

	for _, team := range teams {
		sheet := sheetName(string(team))
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("team %s: %w", team, err)
		}
		writeHeaders(f, sheet, headers)

		// Collect and sort this team's matches
		type teamMatch struct {
			date     time.Time
			time     string
			venue    string
			opponent fixture.TeamID
			homeAway string
			label    string
		}
		var games []teamMatch
		for _, m := range matches {
			switch team {
			case m.Home:
				games = append(games, teamMatch{
					date: m.Date, time: m.TimeSlot, venue: m.Venue,
					opponent: m.Away, homeAway: "Home", label: m.Label,
				})
			case m.Away:
				games = append(games, teamMatch{
					date: m.Date, time: m.TimeSlot, venue: m.Venue,
					opponent: m.Home, homeAway: "Away", label: m.Label,
				})
			}
		}
		sort.SliceStable(games, func(i, j int) bool {
			if !games[i].date.Equal(games[j].date) {
				return games[i].date.Before(games[j].date)
			}
			return games[i].time < games[j].time
		})

		for i, g := range games {
			row := i + 2
			f.SetCellValue(sheet, cellRef(1, row), g.date.Format(dateLayout))
			f.SetCellValue(sheet, cellRef(2, row), g.date.Format("Mon"))
			f.SetCellValue(sheet, cellRef(3, row), g.time)
			f.SetCellValue(sheet, cellRef(4, row), g.venue)
			f.SetCellValue(sheet, cellRef(5, row), string(g.opponent))
			f.SetCellValue(sheet, cellRef(6, row), g.homeAway)
			f.SetCellValue(sheet, cellRef(7, row), g.label)
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
			}
		}

		// Set column widths (sized for Arial 16)
		widths := map[string]float64{"A": 18, "B": 8, "C": 10, "D": 28, "E": 20, "F": 14, "G": 20}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}

	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
	}
}

func bodyStyle(f *excelize.File, centered bool) int {
	style := &excelize.Style{Font: &excelize.Font{Size: 16, Family: "Arial"}}
	if centered {
		style.Alignment = &excelize.Alignment{Horizontal: "center"}
	}
	id, _ := f.NewStyle(style)
	return id
}

// sheetName trims a team or group name to a valid worksheet name.
func sheetName(name string) string {
	const invalid = `:\/?*[]`
	out := make([]rune, 0, len(name))
	for _, r := range name {
		bad := false
		for _, c := range invalid {
			if r == c {
				bad = true
				break
			}
		}
		if bad {
			r = '-'
		}
		out = append(out, r)
	}
	if len(out) > 31 {
		out = out[:31]
	}
	return string(out)
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
