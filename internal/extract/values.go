package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"csvwarehouse/internal/warehouse"
)

// DefaultDateLayout applies when a datetime column names no layout.
const DefaultDateLayout = "2006-01-02"

var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
}

// ParseValue converts one trimmed cell into its typed form. Empty cells are
// nil. A cell that does not parse is returned as its raw string together
// with the parse error.
func ParseValue(cell string, typ warehouse.ColumnType, layout string) (any, error) {
	if cell == "" {
		return nil, nil
	}
	switch typ {
	case warehouse.TypeInt:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return cell, fmt.Errorf("not an integer: %q", cell)
		}
		return n, nil
	case warehouse.TypeFloat:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return cell, fmt.Errorf("not a number: %q", cell)
		}
		return f, nil
	case warehouse.TypeDecimal:
		d, err := decimal.NewFromString(cell)
		if err != nil {
			return cell, fmt.Errorf("not a decimal: %q", cell)
		}
		return d, nil
	case warehouse.TypeDateTime:
		t, err := ParseTime(cell, layout)
		if err != nil {
			return cell, err
		}
		return t, nil
	default:
		return cell, nil
	}
}

// ParseTime tries layout (or DefaultDateLayout) first, then the common
// timestamp forms. Zone-less values are UTC.
func ParseTime(s, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
		return t.UTC(), nil
	}
	for _, l := range fallbackLayouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a datetime (layout %q): %q", layout, s)
}
