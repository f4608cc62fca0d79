package erp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// parseFloat coerces a numeric string from the ERP into a float64.
// Handles comma decimal separators and embedded group spaces. Any
// failure yields 0 with ok=false so callers can treat the value as
// missing instead of aborting the run.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDate reads the date formats the export endpoints emit.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05",
		"2006-01-02",
		"02.01.2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// charsetReader lets the XML decoder handle the windows-1251 payloads
// the ERP still serves on some endpoints.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	case "", "utf-8":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported xml charset %q", charset)
	}
}
