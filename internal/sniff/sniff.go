package sniff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrParse is returned when the decoded text cannot be read as a table at
// all. Individual malformed rows are skipped, not fatal; this fires only
// when not even a header row can be extracted.
var ErrParse = errors.New("sniff: file is not parseable as a table")

const (
	separatorSampleLines = 10
	headerScanLines      = 50
)

// headerKeywords are the bilingual (English/Italian) markers that identify
// a real header line among export preamble. Matching is substring-based on
// the lowercased line, mirroring how the platforms name their columns.
var headerKeywords = []string{
	"date", "data", "time", "giorno",
	"video", "post", "link", "permalink",
	"gender", "sesso", "uomini", "donne", "maschi", "femmine",
	"territor", "countr", "città", "paes",
	"inserzione", "campagn", "impression",
	"follower", "reach", "view", "like", "copertura", "interazi",
}

// placeholderColumn matches pandas-style unnamed column artifacts that some
// exports carry for trailing separators.
var placeholderColumn = regexp.MustCompile(`(?i)^unnamed`)

// Detect decodes raw file bytes, infers the field separator, locates the
// first real header line, and returns the cleaned Table.
//
// The whole file is accepted or rejected atomically: ErrEncoding when no
// encoding decodes it, ErrParse when no tabular structure can be recovered.
// Malformed individual rows are silently skipped.
func Detect(data []byte, filename string) (*Table, error) {
	content, encName, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrParse)
	}

	sep := detectSeparator(lines)
	headerRow := detectHeaderRow(lines, sep)

	t, err := readTable(lines[headerRow:], sep)
	if err != nil {
		return nil, err
	}
	t.SourceName = filename
	t.Separator = sep
	t.Encoding = encName
	t.HeaderOffset = headerRow
	return t, nil
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// detectSeparator counts candidate separators over the first lines of the
// file. Tab wins when it beats both of the others; otherwise semicolon is
// preferred over comma, matching the European exports this system ingests.
func detectSeparator(lines []string) rune {
	sample := lines
	if len(sample) > separatorSampleLines {
		sample = sample[:separatorSampleLines]
	}

	var commas, semis, tabs int
	for _, l := range sample {
		commas += strings.Count(l, ",")
		semis += strings.Count(l, ";")
		tabs += strings.Count(l, "\t")
	}

	switch {
	case tabs >= commas && tabs > semis && tabs > 0:
		return '\t'
	case semis >= commas && semis > 0:
		return ';'
	default:
		return ','
	}
}

// detectHeaderRow scans for the first line that contains the separator and
// at least one header keyword. Files without preamble fall back to line 0.
func detectHeaderRow(lines []string, sep rune) int {
	limit := len(lines)
	if limit > headerScanLines {
		limit = headerScanLines
	}

	for i := 0; i < limit; i++ {
		if !strings.ContainsRune(lines[i], sep) {
			continue
		}
		lower := strings.ToLower(lines[i])
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return 0
}

// readTable parses the header line plus data rows, dropping placeholder and
// duplicate columns and fully-empty rows. Rows with the wrong cell count
// are padded or truncated to the header width rather than rejected.
func readTable(lines []string, sep rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	// keep maps output column position to source position.
	var columns []string
	var keep []int
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || placeholderColumn.MatchString(name) {
			continue
		}
		if seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		columns = append(columns, name)
		keep = append(keep, i)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no usable columns in header", ErrParse)
	}

	t := &Table{Columns: columns}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Structurally broken row: skip it, keep the file.
			continue
		}

		row := make([]string, len(keep))
		empty := true
		for out, src := range keep {
			if src < len(record) {
				row[out] = strings.TrimSpace(record[src])
			}
			if row[out] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
