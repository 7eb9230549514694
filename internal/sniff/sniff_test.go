package sniff

import (
	"errors"
	"testing"
	"unicode/utf16"
)

func utf16LEBytes(s string, bom bool) []byte {
	var out []byte
	if bom {
		out = append(out, 0xFF, 0xFE)
	}
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

func TestDetectSimpleCSV(t *testing.T) {
	data := []byte("Date,Followers\n2024-11-01,1000\n2024-11-02,1010\n")

	tbl, err := Detect(data, "followers.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Encoding != "utf-8" {
		t.Errorf("encoding = %q, want utf-8", tbl.Encoding)
	}
	if tbl.Separator != ',' {
		t.Errorf("separator = %q, want comma", tbl.Separator)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[0] != "Date" {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if tbl.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", tbl.RowCount())
	}
	if tbl.SourceName != "followers.csv" {
		t.Errorf("source name = %q", tbl.SourceName)
	}
}

func TestDetectSemicolonWithPreamble(t *testing.T) {
	data := []byte(
		"Report esportato il 15/11/2024\n" +
			"Account: @brand\n" +
			"\n" +
			"Data;Follower\n" +
			"01/11/2024;1.234\n" +
			"02/11/2024;1.240\n")

	tbl, err := Detect(data, "follower_export.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Separator != ';' {
		t.Errorf("separator = %q, want semicolon", tbl.Separator)
	}
	if tbl.HeaderOffset != 3 {
		t.Errorf("header offset = %d, want 3", tbl.HeaderOffset)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[1] != "Follower" {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if tbl.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", tbl.RowCount())
	}
}

func TestDetectTabSeparated(t *testing.T) {
	data := []byte("Video Link\tTotal views\nhttps://x/video/1\t100\n")

	tbl, err := Detect(data, "videos.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Separator != '\t' {
		t.Errorf("separator = %q, want tab", tbl.Separator)
	}
	if tbl.Cell(0, 1) != "100" {
		t.Errorf("cell = %q", tbl.Cell(0, 1))
	}
}

func TestDetectSeparatorTabWinsTieWithComma(t *testing.T) {
	// One comma and one tab per line.
	lines := []string{"a\tb,x", "1\t2,y"}
	if sep := detectSeparator(lines); sep != '\t' {
		t.Errorf("separator = %q, want tab on tie", sep)
	}
}

func TestDetectSeparatorSemicolonWinsTieWithComma(t *testing.T) {
	lines := []string{"a;b,x", "1;2,y"}
	if sep := detectSeparator(lines); sep != ';' {
		t.Errorf("separator = %q, want semicolon on tie", sep)
	}
}

func TestDetectUTF16WithBOM(t *testing.T) {
	data := utf16LEBytes("Gender,Distribution\nMale,0.42\nFemale,0.58\n", true)

	tbl, err := Detect(data, "gender.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Encoding != "utf-16" {
		t.Errorf("encoding = %q, want utf-16", tbl.Encoding)
	}
	if tbl.RowCount() != 2 || tbl.Cell(0, 0) != "Male" {
		t.Errorf("rows = %d cell = %q", tbl.RowCount(), tbl.Cell(0, 0))
	}
}

func TestDetectUTF16WithoutBOM(t *testing.T) {
	data := utf16LEBytes("Date,Followers\n2024-11-01,10\n", false)

	tbl, err := Detect(data, "f.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Encoding != "utf-16" {
		t.Errorf("encoding = %q, want utf-16", tbl.Encoding)
	}
	if tbl.Columns[0] != "Date" {
		t.Errorf("columns = %v", tbl.Columns)
	}
}

func TestDetectUTF8BOMStripped(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Reach\n2024-11-01,5\n")...)

	tbl, err := Detect(data, "reach.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Encoding != "utf-8-sig" {
		t.Errorf("encoding = %q, want utf-8-sig", tbl.Encoding)
	}
	if tbl.Columns[0] != "Date" {
		t.Errorf("BOM leaked into first column: %q", tbl.Columns[0])
	}
}

func TestDetectLatin1Fallback(t *testing.T) {
	// 0xE8 is è in Latin-1 and invalid as a standalone UTF-8 byte.
	data := []byte("Citt\xe0 principali,Follower\nMilano,100\n")

	tbl, err := Detect(data, "cities.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Encoding != "latin-1" {
		t.Errorf("encoding = %q, want latin-1", tbl.Encoding)
	}
	if tbl.Columns[0] != "Città principali" {
		t.Errorf("column = %q", tbl.Columns[0])
	}
}

func TestDetectCleansColumnsAndRows(t *testing.T) {
	data := []byte(
		"Date,Unnamed: 1,Views,Views,\n" +
			"2024-11-01,x,100,200,y\n" +
			",,,,\n" +
			"2024-11-02,x,300\n")

	tbl, err := Detect(data, "messy.csv")
	if err != nil {
		t.Fatal(err)
	}
	// Placeholder, duplicate and empty-named columns are gone.
	if len(tbl.Columns) != 2 || tbl.Columns[0] != "Date" || tbl.Columns[1] != "Views" {
		t.Fatalf("columns = %v, want [Date Views]", tbl.Columns)
	}
	// The all-empty row is dropped, the short row padded.
	if tbl.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.RowCount())
	}
	if tbl.Cell(0, 1) != "100" {
		t.Errorf("first kept Views cell = %q, want 100", tbl.Cell(0, 1))
	}
	if tbl.Cell(1, 1) != "300" {
		t.Errorf("short row cell = %q, want 300", tbl.Cell(1, 1))
	}
}

func TestDetectEmptyFile(t *testing.T) {
	_, err := Detect([]byte(""), "empty.csv")
	if !errors.Is(err, ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestColumnIndexKeywordPriority(t *testing.T) {
	tbl := &Table{Columns: []string{"Campaign name", "Ad name", "Spent"}}
	if got := tbl.ColumnIndex("ad name", "campaign"); got != 1 {
		t.Errorf("ColumnIndex = %d, want 1 (keyword order beats column order)", got)
	}
	if got := tbl.ColumnIndex("missing"); got != -1 {
		t.Errorf("ColumnIndex(missing) = %d, want -1", got)
	}
}
