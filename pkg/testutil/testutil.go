// Package testutil provides testing utilities for parquetize
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Sheet describes a worksheet fixture: a header row followed by data rows.
// A nil cell is left empty.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// WriteWorkbook writes an XLSX file at path holding the given sheets, in
// order. The first sheet is the one the converter reads by default.
func WriteWorkbook(t *testing.T, path string, sheets ...Sheet) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = "Sheet1"
			if i > 0 {
				t.Fatalf("sheet %d needs a name", i)
			}
		}
		if i == 0 {
			if name != "Sheet1" {
				RequireNoError(t, f.SetSheetName("Sheet1", name), "rename first sheet")
			}
		} else {
			_, err := f.NewSheet(name)
			RequireNoError(t, err, "create sheet")
		}

		for c, h := range s.Header {
			setCell(t, f, name, c, 0, h)
		}
		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				setCell(t, f, name, c, r+1, v)
			}
		}
	}

	RequireNoError(t, f.SaveAs(path), "save workbook")
}

func setCell(t *testing.T, f *excelize.File, sheet string, col, row int, v interface{}) {
	t.Helper()
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	RequireNoError(t, err, "cell name")
	RequireNoError(t, f.SetCellValue(sheet, axis, v), "set cell "+axis)
}

// RequireNoError fails the test immediately if err is not nil.
// The msg parameter provides additional context in the failure message.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
