// Package export writes an event's pending sync queue to an .xlsx workbook
// so offline check-ins can be hand-carried to the office when the automated
// drain cannot run.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"koinonia.church/koinonia/station/model"
	"koinonia.church/koinonia/utils"
)

const sheetName = "Pending Check-ins"

var headers = []string{"Member ID", "Full Name", "Method", "Captured At"}

// WritePendingWorkbook writes one sheet with a header row followed by one
// row per queued check-in, in queue order.
func WritePendingWorkbook(path, eventID string, rows []model.PendingCheckIn) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		if row.EventID != eventID {
			return fmt.Errorf("pending row %s belongs to event %s, expected %s", row.ID, row.EventID, eventID)
		}

		captured := row.Timestamp
		if t, err := utils.ParseISOTime(row.Timestamp); err == nil {
			captured = t.Format("2006-01-02 15:04:05")
		}

		values := []any{row.MemberID, row.FullName, string(row.Method), captured}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
