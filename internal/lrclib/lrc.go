package lrclib

import (
	"fmt"
	"strconv"
	"strings"
)

// Line is one synced lyric line.
type Line struct {
	TimeSeconds float64
	Text        string
}

// ParseLRC parses "[mm:ss.xx] text" lines. Metadata tags and lines without
// text are skipped; malformed timestamps drop the line rather than failing
// the whole parse.
func ParseLRC(raw string) []Line {
	if raw == "" {
		return nil
	}

	rawLines := strings.Split(raw, "\n")
	result := make([]Line, 0, len(rawLines))

	for _, rawLine := range rawLines {
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" || !strings.HasPrefix(trimmed, "[") {
			continue
		}

		end := strings.Index(trimmed, "]")
		if end <= 1 {
			continue
		}

		text := strings.TrimSpace(trimmed[end+1:])
		if text == "" {
			continue
		}

		seconds, err := parseTimestamp(trimmed[1:end])
		if err != nil {
			continue
		}

		result = append(result, Line{TimeSeconds: seconds, Text: text})
	}

	return result
}

// FormatTimestamp renders seconds as mm:ss.xx for display and LRC output.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	secs := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%05.2f", minutes, secs)
}

// EncodeLRC renders timed lines back into LRC text.
func EncodeLRC(lines []Line) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString("[")
		b.WriteString(FormatTimestamp(line.TimeSeconds))
		b.WriteString("]")
		b.WriteString(line.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func parseTimestamp(raw string) (float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time format: %s", raw)
	}

	var hours, minutes, seconds float64
	var err error

	idx := 0
	if len(parts) == 3 {
		hours, err = parseFloat(parts[0])
		if err != nil {
			return 0, err
		}
		idx = 1
	}
	minutes, err = parseFloat(parts[idx])
	if err != nil {
		return 0, err
	}
	seconds, err = parseFloat(parts[idx+1])
	if err != nil {
		return 0, err
	}

	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, fmt.Errorf("negative time: %s", raw)
	}
	return total, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
