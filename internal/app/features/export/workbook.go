// internal/app/features/export/workbook.go
package export

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheet is one worksheet of plain rows under a bold header line.
type sheet struct {
	Name    string
	Headers []string
	Widths  []float64
	Rows    [][]any
}

// build renders s into a new single-sheet workbook. The caller closes it.
func (s sheet) build() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", s.Name); err != nil {
		_ = f.Close()
		return nil, err
	}

	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(s.Headers), 1)
	if err := f.SetCellStyle(s.Name, "A1", last, bold); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, row := range s.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for i, width := range s.Widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(s.Name, col, col, width); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	err = f.SetPanes(s.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// filename returns "<base>_<yyyymmdd>_<8 hex>.xlsx" so repeated downloads
// on one day do not overwrite each other.
func filename(base string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s.xlsx", base, now.UTC().Format("20060102"), uuid.NewString()[:8])
}

// send writes the workbook as an attachment.
func send(w http.ResponseWriter, f *excelize.File, name string) error {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(name)))
	w.Header().Set("Cache-Control", "no-store")
	_, err := f.WriteTo(w)
	return err
}

// dateCell formats t as a calendar date, or "" for the zero time.
func dateCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
