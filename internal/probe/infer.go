package probe

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"csvwarehouse/internal/warehouse"
)

// inferColumn picks the narrowest type every non-empty value satisfies:
// int, then decimal or float, then datetime, else string.
func inferColumn(values []string) Column {
	nonEmpty := make([]string, 0, len(values))
	longest := 0
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		nonEmpty = append(nonEmpty, v)
		if n := len([]rune(v)); n > longest {
			longest = n
		}
	}
	switch {
	case len(nonEmpty) == 0:
		return Column{Type: warehouse.TypeString, Size: stringSize(0)}
	case allMatch(nonEmpty, isInt):
		return Column{Type: warehouse.TypeInt}
	case allMatch(nonEmpty, isNumber):
		if allMatch(nonEmpty, isMoney) {
			return Column{Type: warehouse.TypeDecimal}
		}
		return Column{Type: warehouse.TypeFloat}
	}
	if layout := bestLayout(nonEmpty); layout != "" {
		return Column{Type: warehouse.TypeDateTime, Layout: layout}
	}
	return Column{Type: warehouse.TypeString, Size: stringSize(longest)}
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isMoney matches plain fixed-point values with at most two decimals.
func isMoney(s string) bool {
	if strings.ContainsAny(s, "eE") {
		return false
	}
	i := strings.IndexByte(s, '.')
	return i < 0 || len(s)-i-1 <= 2
}

// stringSize rounds n up to a familiar column width; 0 means unbounded.
func stringSize(n int) int {
	for _, s := range []int{50, 100, 200, 500, 1000, 4000} {
		if n <= s {
			return s
		}
	}
	return 0
}

var layouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01.02.2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"20060102",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
}

// preference breaks ties between layouts matching the same samples:
// ISO first, then day-first, then month-first.
func preference(layout string) int {
	switch {
	case strings.HasPrefix(layout, "2006"):
		return 3
	case strings.HasPrefix(layout, "02"):
		return 2
	default:
		return 1
	}
}

// bestLayout returns the layout parsing every sample, or "".
func bestLayout(samples []string) string {
	best, bestPref := "", 0
	for _, l := range layouts {
		ok := true
		for _, s := range samples {
			if _, err := time.Parse(l, s); err != nil {
				ok = false
				break
			}
		}
		if ok && preference(l) > bestPref {
			best, bestPref = l, preference(l)
		}
	}
	return best
}

// normalizeName turns header text into a lowercase ASCII identifier:
// accents stripped, runs of space, dash and dot become one underscore,
// anything else dropped. A leading digit gets a "c_" prefix.
func normalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	underscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	switch {
	case name == "":
		return "col"
	case name[0] >= '0' && name[0] <= '9':
		name = "c_" + name
	}
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// uniqueNames normalizes headers and suffixes repeats with _2, _3, ...
func uniqueNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := map[string]int{}
	for i, h := range headers {
		n := normalizeName(h)
		seen[n]++
		if c := seen[n]; c > 1 {
			n = n + "_" + strconv.Itoa(c)
		}
		out[i] = n
	}
	return out
}
