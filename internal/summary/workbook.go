// Package summary tabulates a team's selected entries into an xlsx workbook.
package summary

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Lllllllleong/heatsheetflow/internal/roster"
)

const (
	// SheetName is the single worksheet in every summary workbook.
	SheetName = "Summary"
	// NoEntriesText fills the table when the filter matched nobody.
	NoEntriesText = "No athletes found matching the selected team and lanes."
	// ContentType is the MIME type the workbook is stored under.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	missingValue = "—"
	headerRow    = 5
)

var columns = []string{"Event", "Athlete", "Heat", "Lane", "Seed"}

// Input is everything printed on a summary.
type Input struct {
	MeetName    string
	Team        string
	Lanes       []int
	Entries     []roster.Entry
	GeneratedAt time.Time
}

// Build renders in as a workbook and returns its bytes.
func Build(in Input) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	laneText := make([]string, len(in.Lanes))
	for i, l := range in.Lanes {
		laneText[i] = strconv.Itoa(l)
	}
	preamble := [][]any{
		{in.MeetName},
		{fmt.Sprintf("Team: %s  |  Lanes: %s", in.Team, strings.Join(laneText, ", "))},
		{"Generated: " + in.GeneratedAt.Format("2006-01-02")},
	}
	for i, row := range preamble {
		if err := setRow(f, i+1, row); err != nil {
			return nil, err
		}
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, headerRow, header); err != nil {
		return nil, err
	}

	if len(in.Entries) == 0 {
		if err := setRow(f, headerRow+1, []any{NoEntriesText}); err != nil {
			return nil, err
		}
	}
	for i, e := range in.Entries {
		row := []any{e.Label(), e.Athlete.Name, optionalInt(e.Athlete.Heat), optionalInt(e.Athlete.Lane), orMissing(e.Athlete.SeedTime)}
		if err := setRow(f, headerRow+1+i, row); err != nil {
			return nil, err
		}
	}

	if err := styleSheet(f); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func styleSheet(f *excelize.File) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A5", "E5", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", "B", 36); err != nil {
		return err
	}
	return f.SetColWidth(SheetName, "C", "E", 10)
}

func optionalInt(v *int) any {
	if v == nil {
		return missingValue
	}
	return *v
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingValue
	}
	return s
}
