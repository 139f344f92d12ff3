// Package spreadsheet loads one worksheet of an XLSX workbook into a Table.
//
// The first row holds the column names. Each column gets the narrowest type
// holding all of its cells: bool, int64, float64, timestamp, falling back
// to text. Empty cells and error cells (#N/A, #DIV/0!, ...) are missing
// values. Cells formatted as a time of day have no date part and keep their
// displayed text.
package spreadsheet

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// Options configures a Reader.
type Options struct {
	// Sheet to read; empty selects the first sheet of the workbook
	Sheet string
}

// Reader loads workbooks.
type Reader struct {
	opts   Options
	logger *zap.Logger
}

// NewReader creates a reader. A nil logger disables logging.
func NewReader(opts Options, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{opts: opts, logger: logger}
}

// Load reads the configured sheet of the workbook at path. A path that does
// not exist yields a not_found error before anything is opened.
func (r *Reader) Load(path string) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.SourceNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat source").
			WithDetail("path", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to open workbook").
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	return r.Read(f)
}

// Read converts an already opened workbook.
func (r *Reader) Read(f *excelize.File) (*table.Table, error) {
	sheet, err := r.selectSheet(f)
	if err != nil {
		return nil, err
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read rows").
			WithDetail("sheet", sheet)
	}
	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read rows").
			WithDetail("sheet", sheet)
	}

	if len(raw) == 0 {
		return table.New()
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	width := 0
	for _, row := range raw {
		if len(row) > width {
			width = len(row)
		}
	}
	names := headerNames(rowAt(display, 0), width)

	styles := newStyleCache(f)
	nrows := len(raw) - 1
	columns := make([]*table.Column, 0, width)
	for c := 0; c < width; c++ {
		cells := make([]cell, nrows)
		for i := 0; i < nrows; i++ {
			rowIdx := i + 1
			v := cellAt(raw, rowIdx, c)
			if v == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, rowIdx+1)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid cell coordinates")
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read cell type").
					WithDetail("cell", axis)
			}
			format, err := styles.formatKind(sheet, axis)
			if err != nil {
				return nil, err
			}
			cells[i] = classify(v, cellAt(display, rowIdx, c), typ, format, date1904)
		}

		typ := inferColumnType(cells)
		col, err := table.NewColumn(names[c], typ, convert(cells, typ))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to build column").
				WithDetail("column", names[c])
		}
		r.logger.Debug("inferred column type",
			zap.String("column", names[c]),
			zap.String("type", string(typ)))
		columns = append(columns, col)
	}

	return table.New(columns...)
}

func (r *Reader) selectSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New(errors.ErrorTypeParse, "workbook has no sheets")
	}
	if r.opts.Sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == r.opts.Sheet {
			return s, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "sheet %q not found", r.opts.Sheet).
		WithDetail("sheets", sheets)
}

// Load reads the first sheet of the workbook at path.
func Load(path string) (*table.Table, error) {
	return NewReader(Options{}, nil).Load(path)
}

// headerNames names every column from the header row, keeping the text as
// written. Blank names become "Unnamed: <index>" and repeated names get
// ".1", ".2", ... suffixes.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		name := valueAt(header, i)
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		candidate := name
		for n := 1; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s.%d", name, n)
		}
		used[candidate] = true
		names[i] = candidate
	}
	return names
}

func rowAt(rows [][]string, i int) []string {
	if i < len(rows) {
		return rows[i]
	}
	return nil
}

func valueAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func cellAt(rows [][]string, r, c int) string {
	return valueAt(rowAt(rows, r), c)
}

// styleCache memoizes the number format kind of each style id.
type styleCache struct {
	f     *excelize.File
	kinds map[int]numFmtKind
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, kinds: make(map[int]numFmtKind)}
}

func (s *styleCache) formatKind(sheet, axis string) (numFmtKind, error) {
	id, err := s.f.GetCellStyle(sheet, axis)
	if err != nil {
		return fmtNumber, errors.Wrap(err, errors.ErrorTypeParse, "failed to read cell style").
			WithDetail("cell", axis)
	}
	if v, ok := s.kinds[id]; ok {
		return v, nil
	}

	style, err := s.f.GetStyle(id)
	if err != nil {
		return fmtNumber, errors.Wrap(err, errors.ErrorTypeParse, "failed to read style").
			WithDetail("style", id)
	}
	custom := ""
	if style.CustomNumFmt != nil {
		custom = *style.CustomNumFmt
	}
	v := formatKind(style.NumFmt, custom)
	s.kinds[id] = v
	return v, nil
}
