// Package excel reads inspection workbooks into header and data rows and
// derives file-level metadata (content hash, reporting period). It is the
// only package that touches the xlsx format; everything downstream works on
// plain string cells.
package excel

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"inspection-tracker/constants"
	"inspection-tracker/internal/coerce"
	"inspection-tracker/internal/common"
	"inspection-tracker/internal/entity"
)

// Sheet is one parsed worksheet: a header row plus data rows.
type Sheet struct {
	Name    string
	Headers []string
	// Rows holds the data rows in file order, header excluded. Row i of this
	// slice is workbook row i+2.
	Rows        [][]string
	ContentHash string
}

// WorkbookRow converts a data-row index into the 1-based workbook row number
// users see in their spreadsheet application.
func (s *Sheet) WorkbookRow(dataIndex int) int {
	return dataIndex + 2
}

// Read parses workbook bytes. The first sheet is used unless sheetName names
// another one. Structural problems (unreadable file, no header, no data rows)
// come back as AppErrors with stable codes.
func Read(data []byte, sheetName string) (*Sheet, error) {
	if len(data) == 0 {
		return nil, common.NewAppError(common.CodeEmptyFile, "file is empty", nil)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError(common.CodeStructuralError, "workbook is not readable", err)
	}
	defer f.Close()

	name := sheetName
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return nil, common.NewAppError(common.CodeEmptyFile, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, common.NewAppError(common.CodeStructuralError,
			fmt.Sprintf("sheet %q is not readable", name), err)
	}
	if len(rows) == 0 {
		return nil, common.NewAppError(common.CodeEmptyFile, "sheet has no rows", nil)
	}
	if len(rows) == 1 {
		return nil, common.NewAppError(common.CodeEmptyFile, "sheet has a header but no data rows", nil)
	}

	sum := sha256.Sum256(data)
	return &Sheet{
		Name:        name,
		Headers:     rows[0],
		Rows:        rows[1:],
		ContentHash: hex.EncodeToString(sum[:]),
	}, nil
}

// Cell returns the raw cell at idx, tolerating the ragged rows excelize
// produces when trailing cells are empty.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// DetectPeriod scans up to scanLimit dated rows and classifies the file's
// reporting window. Rows whose date cell does not parse are skipped; a file
// with no parseable dates at all comes back as UNKNOWN.
func DetectPeriod(s *Sheet, dateIdx int, scanLimit int) entity.PeriodInfo {
	info := entity.PeriodInfo{Type: constants.PeriodUnknown}
	if dateIdx < 0 {
		return info
	}

	monthsSeen := make(map[int]struct{})
	yearsSeen := make(map[int]struct{})
	dated := 0

	for _, row := range s.Rows {
		if scanLimit > 0 && dated >= scanLimit {
			break
		}
		d := coerce.Date(Cell(row, dateIdx))
		if d == nil {
			continue
		}
		dated++

		if info.MinDate == nil || d.Before(*info.MinDate) {
			info.MinDate = d
		}
		if info.MaxDate == nil || d.After(*info.MaxDate) {
			info.MaxDate = d
		}
		monthsSeen[int(d.Month())] = struct{}{}
		yearsSeen[d.Year()] = struct{}{}
	}

	if dated == 0 {
		return info
	}

	info.Year = info.MinDate.Year()
	for m := range monthsSeen {
		info.Months = append(info.Months, m)
	}
	sort.Ints(info.Months)

	switch {
	case len(monthsSeen) > 3 || len(yearsSeen) > 1:
		info.Type = constants.PeriodAnnual
	case len(monthsSeen) == 1:
		info.Type = constants.PeriodMonthly
	default:
		info.Type = constants.PeriodMixed
	}
	return info
}
