package spreadsheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ajitpratap0/parquetize/pkg/table"
)

// cellKind is the detected type of a single non-empty cell.
type cellKind int

const (
	kindMissing cellKind = iota
	kindBool
	kindInt
	kindFloat
	kindTime
	kindText
)

// cell is a decoded spreadsheet cell.
type cell struct {
	kind    cellKind
	value   interface{} // int64, float64, bool, time.Time or string
	display string      // formatted text, used when a column falls back to text
}

// numFmtKind is what a cell's number format renders.
type numFmtKind int

const (
	fmtNumber numFmtKind = iota
	fmtDate
	fmtTime // time of day or elapsed time, no date part
)

// classify decodes a raw cell value given its excelize type and the kind of
// its number format.
func classify(raw, display string, typ excelize.CellType, format numFmtKind, date1904 bool) cell {
	if raw == "" {
		return cell{kind: kindMissing}
	}

	switch typ {
	case excelize.CellTypeError:
		// #N/A, #DIV/0! and friends read as missing values
		return cell{kind: kindMissing}
	case excelize.CellTypeBool:
		b, err := parseBool(raw)
		if err != nil {
			return text(raw, display)
		}
		return cell{kind: kindBool, value: b, display: display}
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return text(raw, display)
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return cell{kind: kindTime, value: t.UTC(), display: display}
		}
		if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return cell{kind: kindTime, value: t, display: display}
		}
		return text(raw, display)
	}

	// Untyped and numeric cells. A time-only serial has no calendar date,
	// so it keeps the text the sheet displays.
	if format == fmtTime {
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return text(raw, display)
		}
	}
	if format == fmtDate {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(f, date1904); err == nil {
				return cell{kind: kindTime, value: t.Round(time.Millisecond), display: display}
			}
		}
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return cell{kind: kindInt, value: i, display: display}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return cell{kind: kindFloat, value: f, display: display}
	}
	return text(raw, display)
}

func text(raw, display string) cell {
	if display == "" {
		display = raw
	}
	return cell{kind: kindText, value: raw, display: display}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToUpper(raw) {
	case "1", "TRUE":
		return true, nil
	case "0", "FALSE":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// inferColumnType picks the narrowest column type holding every cell.
// A column with no values is float64, matching what pandas gives an
// all-missing column.
func inferColumnType(cells []cell) table.ColumnType {
	counts := make(map[cellKind]int)
	for _, c := range cells {
		if c.kind != kindMissing {
			counts[c.kind]++
		}
	}

	switch {
	case len(counts) == 0:
		return table.TypeFloat64
	case len(counts) == 1 && counts[kindBool] > 0:
		return table.TypeBool
	case len(counts) == 1 && counts[kindInt] > 0:
		return table.TypeInt64
	case len(counts) == 1 && counts[kindTime] > 0:
		return table.TypeTimestamp
	case len(counts) == 1 && counts[kindText] > 0:
		return table.TypeString
	case len(counts) == 2 && counts[kindInt] > 0 && counts[kindFloat] > 0,
		len(counts) == 1 && counts[kindFloat] > 0:
		return table.TypeFloat64
	default:
		return table.TypeString
	}
}

// convert turns cells into column values of the given type.
func convert(cells []cell, typ table.ColumnType) []interface{} {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		if c.kind == kindMissing {
			continue
		}
		switch typ {
		case table.TypeFloat64:
			switch v := c.value.(type) {
			case int64:
				values[i] = float64(v)
			case float64:
				values[i] = v
			}
		case table.TypeString:
			if c.kind == kindText {
				values[i] = c.value
			} else {
				values[i] = c.display
			}
		default:
			values[i] = c.value
		}
	}
	return values
}

// formatKind reports whether a number format renders dates, times of day
// or plain numbers. Built-in ids follow ECMA-376 18.8.30; custom formats are
// scanned for date tokens outside quoted literals, escapes and bracketed
// sections.
func formatKind(numFmt int, custom string) numFmtKind {
	if custom != "" {
		return customFormatKind(custom)
	}
	switch {
	case numFmt >= 18 && numFmt <= 21,
		numFmt >= 45 && numFmt <= 47:
		return fmtTime
	case numFmt >= 14 && numFmt <= 22,
		numFmt >= 27 && numFmt <= 36,
		numFmt >= 50 && numFmt <= 58:
		return fmtDate
	}
	return fmtNumber
}

func customFormatKind(format string) numFmtKind {
	// Only the first section describes positive numbers.
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = format[:i]
	}

	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			// [h], [mm] and [ss] are elapsed time, everything else is a
			// locale or colour tag.
			end := strings.IndexByte(format[i:], ']')
			if end > 0 {
				tag := strings.ToLower(format[i+1 : i+end])
				if strings.Trim(tag, "hms") == "" && tag != "" {
					b.WriteByte('h')
				}
			}
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}

	tokens := strings.ToLower(b.String())
	switch {
	case strings.ContainsAny(tokens, "dy"):
		return fmtDate
	case strings.ContainsAny(tokens, "hs"):
		// m next to h or s is minutes
		return fmtTime
	case strings.ContainsRune(tokens, 'm'):
		return fmtDate
	}
	return fmtNumber
}
