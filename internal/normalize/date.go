package normalize

import (
	"regexp"
	"strings"
	"time"
)

// ISODate is the canonical output layout for every parsed date.
const ISODate = "2006-01-02"

// monthEntry pairs a month-name fragment with its month number. The table
// is an ordered list, not a map: lookup is first-substring-match, so full
// Italian names come before their abbreviations and before the English
// names that share prefixes with them.
type monthEntry struct {
	name  string
	month time.Month
}

var monthTable = []monthEntry{
	{"gennaio", time.January}, {"febbraio", time.February}, {"marzo", time.March},
	{"aprile", time.April}, {"maggio", time.May}, {"giugno", time.June},
	{"luglio", time.July}, {"agosto", time.August}, {"settembre", time.September},
	{"ottobre", time.October}, {"novembre", time.November}, {"dicembre", time.December},
	{"gen", time.January}, {"feb", time.February}, {"mar", time.March},
	{"apr", time.April}, {"mag", time.May}, {"giu", time.June},
	{"lug", time.July}, {"ago", time.August}, {"set", time.September},
	{"ott", time.October}, {"nov", time.November}, {"dic", time.December},
	{"jan", time.January}, {"may", time.May}, {"jun", time.June},
	{"jul", time.July}, {"aug", time.August}, {"sep", time.September},
	{"oct", time.October}, {"dec", time.December},
}

var (
	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	textualDateRe = regexp.MustCompile(`(\d{1,2})\s+([a-zà-ù]+)(?:\s+(\d{4}))?`)

	// Day-first layouts come before month-first: the exports are
	// predominantly European, so "03/04/2024" reads as 3 April.
	numericLayouts = []string{
		"2006-01-02",
		"02/01/2006",
		"02-01-2006",
		"01/02/2006",
		"2006/01/02",
		"02.01.2006",
	}
)

// ParseDate parses any of the date grammars seen in platform exports and
// returns the canonical YYYY-MM-DD form. The boolean result is false when
// no grammar matches.
func ParseDate(raw string) (string, bool) {
	return parseDateAt(raw, time.Now())
}

// parseDateAt is the clock-injected implementation backing ParseDate; the
// year-inference heuristic for textual dates depends on "now".
func parseDateAt(raw string, now time.Time) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}

	// ISO timestamp (Instagram): keep the part before the time marker.
	if strings.Contains(s, "t") && strings.Contains(s, "-") {
		if d := s[:strings.Index(s, "t")]; isoDateRe.MatchString(d) {
			return d, true
		}
	}

	if isoDateRe.MatchString(s) {
		return s, true
	}

	if d, ok := parseTextualDate(s, now); ok {
		return d, true
	}

	// Numeric layouts apply to the token before any time-of-day suffix.
	first := s
	if i := strings.IndexByte(s, ' '); i > 0 {
		first = s[:i]
	}
	for _, layout := range numericLayouts {
		if t, err := time.Parse(layout, first); err == nil {
			return t.Format(ISODate), true
		}
	}

	return "", false
}

// parseTextualDate handles the Italian/English "<day> <month-name> [year]"
// grammar used by TikTok exports. When the year is omitted it is inferred
// from the current date: a late-year month parsed in January or February
// belongs to the previous year. Tuned for recent-past export data, not a
// general solution.
func parseTextualDate(s string, now time.Time) (string, bool) {
	m := textualDateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	day := atoiSafe(m[1])
	month := time.Month(0)
	for _, e := range monthTable {
		if strings.Contains(m[2], e.name) {
			month = e.month
			break
		}
	}
	if month == 0 || day < 1 || day > 31 {
		return "", false
	}

	year := now.Year()
	if m[3] != "" {
		year = atoiSafe(m[3])
	} else if now.Month() <= time.February && month >= time.October {
		year--
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		// Normalized away, e.g. "31 febbraio".
		return "", false
	}
	return t.Format(ISODate), true
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
