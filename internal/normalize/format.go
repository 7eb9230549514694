package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// NullDisplay is the placeholder shown for null-like or unparseable values.
const NullDisplay = "—"

// FormatCompact renders a number the way the reports show it: magnitude
// suffix above a thousand, thousands-grouped integer above one, two
// decimals below one.
func FormatCompact(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	case abs >= 1:
		return groupThousands(int64(v))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FormatCell parses a raw cell and renders it compactly, falling back to
// the null placeholder when the cell holds no number.
func FormatCell(raw string) string {
	v, ok := ParseNumber(raw, false)
	if !ok {
		return NullDisplay
	}
	return FormatCompact(v)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
