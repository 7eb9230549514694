// Package report turns a sniffed table directly into a human-readable
// text summary, bypassing storage. It runs its own lightweight type
// detection tuned for display, which is deliberately simpler than the
// ingest classifier: a wrong guess here only changes which summary
// sections appear, never what gets persisted.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/yangkidd/socialdw/internal/normalize"
	"github.com/yangkidd/socialdw/internal/sniff"
)

const (
	boxWidth     = 78
	previewRows  = 10
	maxStatsCols = 8
	topAds       = 5
	topPosts     = 10
)

type kind int

const (
	kindGeneric kind = iota
	kindTimeSeries
	kindAdCampaign
	kindContent
	kindDemographic
)

// Render produces the full multi-section text report for one table.
func Render(t *sniff.Table, filename string) string {
	if t == nil || t.Empty() {
		return "The file contains no usable data rows."
	}

	var b strings.Builder
	writeHeader(&b, t, filename)
	writeColumnList(&b, t)

	switch detectKind(t) {
	case kindTimeSeries:
		writeTimeSeries(&b, t)
	case kindAdCampaign:
		writeAdCampaign(&b, t)
	case kindContent:
		writeContent(&b, t)
	case kindDemographic:
		writeDemographics(&b, t)
	default:
		writeColumnStats(&b, t)
	}

	writePreview(&b, t)

	b.WriteString(strings.Repeat("─", boxWidth+2) + "\n")
	b.WriteString("Report generated successfully\n")
	return b.String()
}

// detectKind is the display-oriented cascade. It only needs to pick the
// best summary template, so the rules are looser than the ingest ones.
func detectKind(t *sniff.Table) kind {
	joined := strings.ToLower(strings.Join(t.Columns, " "))

	switch {
	case strings.Contains(joined, "speso") || strings.Contains(joined, "spent"):
		return kindAdCampaign
	case (strings.Contains(joined, "link") || strings.Contains(joined, "permalink")) &&
		strings.Contains(joined, "view"):
		return kindContent
	case strings.Contains(joined, "gender") || strings.Contains(joined, "uomini") ||
		strings.Contains(joined, "donne") || strings.Contains(joined, "territor") ||
		strings.Contains(joined, "countr") || strings.Contains(joined, "città"):
		return kindDemographic
	case t.ColumnIndex("date", "data", "giorno", "time") >= 0 && len(t.Columns) >= 2:
		return kindTimeSeries
	default:
		return kindGeneric
	}
}

// ----------------------------------------------------------------------------
// Shared sections
// ----------------------------------------------------------------------------

func boxLine(left, right string) string {
	return left + strings.Repeat("═", boxWidth) + right
}

func writeHeader(b *strings.Builder, t *sniff.Table, filename string) {
	fmt.Fprintln(b, boxLine("╔", "╗"))
	fmt.Fprintf(b, "║ %-*s ║\n", boxWidth-2, truncate(filename, boxWidth-2))
	fmt.Fprintln(b, boxLine("╠", "╣"))
	fmt.Fprintf(b, "║ %-20s %*d ║\n", "Rows:", boxWidth-23, t.RowCount())
	fmt.Fprintf(b, "║ %-20s %*d ║\n", "Columns:", boxWidth-23, len(t.Columns))
	fmt.Fprintln(b, boxLine("╚", "╝"))
	fmt.Fprintln(b)
}

func writeColumnList(b *strings.Builder, t *sniff.Table) {
	fmt.Fprintln(b, "DETECTED COLUMNS:")
	for i := 0; i < len(t.Columns); i += 3 {
		end := i + 3
		if end > len(t.Columns) {
			end = len(t.Columns)
		}
		parts := make([]string, 0, 3)
		for j := i; j < end; j++ {
			parts = append(parts, fmt.Sprintf("%d. %s", j+1, truncate(t.Columns[j], 25)))
		}
		fmt.Fprintf(b, "   %s\n", strings.Join(parts, " | "))
	}
	fmt.Fprintln(b)
}

// columnValues parses every cell of a column, keeping only numbers.
func columnValues(t *sniff.Table, col int) []float64 {
	var vals []float64
	for i := range t.Rows {
		if v, ok := normalize.ParseNumber(t.Cell(i, col), true); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func writeColumnStats(b *strings.Builder, t *sniff.Table) {
	type colStats struct {
		name                 string
		total, avg, min, max float64
	}

	var all []colStats
	for col, name := range t.Columns {
		vals := columnValues(t, col)
		if len(vals) == 0 {
			continue
		}
		total, _ := stats.Sum(vals)
		avg, _ := stats.Mean(vals)
		lo, _ := stats.Min(vals)
		hi, _ := stats.Max(vals)
		all = append(all, colStats{name: name, total: total, avg: avg, min: lo, max: hi})
		if len(all) == maxStatsCols {
			break
		}
	}
	if len(all) == 0 {
		return
	}

	fmt.Fprintln(b, "KEY STATISTICS:")
	fmt.Fprintln(b)
	for _, cs := range all {
		fmt.Fprintf(b, "   %-30s │ Tot: %12s │ Avg: %10s │ Max: %10s\n",
			truncate(cs.name, 30),
			normalize.FormatCompact(cs.total),
			normalize.FormatCompact(cs.avg),
			normalize.FormatCompact(cs.max),
		)
	}
	fmt.Fprintln(b)
}

func writePreview(b *strings.Builder, t *sniff.Table) {
	fmt.Fprintln(b, "DATA PREVIEW:")
	fmt.Fprintln(b)

	cols := previewColumns(t)

	var header []string
	for _, c := range cols {
		header = append(header, fmt.Sprintf("%-18s", truncate(t.Columns[c], 18)))
	}
	line := "   " + strings.Join(header, " │ ")
	fmt.Fprintln(b, line)
	fmt.Fprintln(b, "   "+strings.Repeat("─", len([]rune(line))-3))

	n := t.RowCount()
	if n > previewRows {
		n = previewRows
	}
	for i := 0; i < n; i++ {
		var cells []string
		for _, c := range cols {
			cells = append(cells, fmt.Sprintf("%-18s", previewCell(t, i, c)))
		}
		fmt.Fprintln(b, "   "+strings.Join(cells, " │ "))
	}
	if t.RowCount() > previewRows {
		fmt.Fprintf(b, "   ... and %d more rows\n", t.RowCount()-previewRows)
	}
	fmt.Fprintln(b)
}

// previewColumns picks up to five display columns: date columns first,
// then well-known metric columns, then whatever is left.
func previewColumns(t *sniff.Table) []int {
	if len(t.Columns) <= 5 {
		cols := make([]int, len(t.Columns))
		for i := range cols {
			cols[i] = i
		}
		return cols
	}

	var dateCols, metricCols, otherCols []int
	for i, c := range t.Columns {
		lower := strings.ToLower(c)
		switch {
		case containsAny(lower, "date", "data", "giorno", "time"):
			dateCols = append(dateCols, i)
		case containsAny(lower, "view", "like", "follower", "reach", "spend", "speso", "impression", "total"):
			metricCols = append(metricCols, i)
		default:
			otherCols = append(otherCols, i)
		}
	}

	cols := append(append(dateCols, metricCols...), otherCols...)
	if len(cols) > 5 {
		cols = cols[:5]
	}
	return cols
}

func previewCell(t *sniff.Table, row, col int) string {
	raw := t.Cell(row, col)
	if strings.TrimSpace(raw) == "" {
		return normalize.NullDisplay
	}

	lower := strings.ToLower(t.Columns[col])
	if containsAny(lower, "date", "data", "giorno", "time") {
		if iso, ok := normalize.ParseDate(raw); ok {
			return iso[8:10] + "/" + iso[5:7] + "/" + iso[:4]
		}
		return truncate(raw, 12)
	}
	if containsAny(lower, "view", "like", "follower", "reach", "spend", "speso", "impression") {
		return normalize.FormatCell(raw)
	}
	return truncate(raw, 18)
}

// ----------------------------------------------------------------------------
// Type-specific sections
// ----------------------------------------------------------------------------

// Trend compares the mean of the first half of a series against the mean
// of the second half; moves beyond ten percent count as growth or decline.
func Trend(values []float64) string {
	if len(values) < 2 {
		return "stable"
	}
	half := len(values) / 2
	first, _ := stats.Mean(values[:half])
	second, _ := stats.Mean(values[half:])
	if first == 0 {
		return "stable"
	}
	switch {
	case second > first*1.10:
		return "growing"
	case second < first*0.90:
		return "declining"
	default:
		return "stable"
	}
}

func writeTimeSeries(b *strings.Builder, t *sniff.Table) {
	dateCol := t.ColumnIndex("date", "data", "giorno", "time")

	fmt.Fprintln(b, "TIME SERIES SUMMARY:")
	fmt.Fprintln(b)
	for col, name := range t.Columns {
		if col == dateCol {
			continue
		}
		vals := columnValues(t, col)
		if len(vals) == 0 {
			continue
		}
		total, _ := stats.Sum(vals)
		avg, _ := stats.Mean(vals)
		lo, _ := stats.Min(vals)
		hi, _ := stats.Max(vals)
		fmt.Fprintf(b, "   %-25s │ Tot: %10s │ Avg: %10s │ Min: %10s │ Max: %10s\n",
			truncate(name, 25),
			normalize.FormatCompact(total),
			normalize.FormatCompact(avg),
			normalize.FormatCompact(lo),
			normalize.FormatCompact(hi),
		)
		fmt.Fprintf(b, "   %-25s │ Trend: %s\n", "", Trend(vals))
	}
	fmt.Fprintln(b)
}

func writeAdCampaign(b *strings.Builder, t *sniff.Table) {
	colName := t.ColumnIndex("inserzione", "ad name")
	colSpend := t.ColumnIndex("spes", "spent")
	colImp := t.ColumnIndex("impression")
	colClicks := t.ColumnIndex("clic", "click")
	colRevenue := t.ColumnIndex("valore di conversione", "conversion value", "purchase")

	// Meta exports carry a campaign-total row with no ad name whose values
	// repeat the detail sum. Totals use the detail rows; the summary row
	// counts only when the file has nothing else.
	rows := detailRows(t, colName)
	if len(rows) == 0 {
		rows = make([]int, len(t.Rows))
		for i := range rows {
			rows[i] = i
		}
	}

	sum := func(col int, currency bool) float64 {
		if col < 0 {
			return 0
		}
		var total float64
		for _, i := range rows {
			if v, ok := normalize.ParseNumber(t.Cell(i, col), currency); ok {
				total += v
			}
		}
		return total
	}

	spend := sum(colSpend, true)
	impressions := sum(colImp, false)
	clicks := sum(colClicks, false)
	revenue := sum(colRevenue, true)

	fmt.Fprintln(b, "AD CAMPAIGN SUMMARY:")
	fmt.Fprintln(b)
	fmt.Fprintf(b, "   Total spend:       %s\n", normalize.FormatCompact(spend))
	if impressions > 0 {
		fmt.Fprintf(b, "   Total impressions: %s\n", normalize.FormatCompact(impressions))
	}
	if clicks > 0 {
		fmt.Fprintf(b, "   Total clicks:      %s\n", normalize.FormatCompact(clicks))
	}

	// Derived rates, only where the inputs exist.
	if impressions > 0 && clicks > 0 {
		fmt.Fprintf(b, "   CTR:               %.2f%%\n", clicks/impressions*100)
	}
	if clicks > 0 && spend > 0 {
		fmt.Fprintf(b, "   CPC:               %.2f\n", spend/clicks)
	}
	if impressions > 0 && spend > 0 {
		fmt.Fprintf(b, "   CPM:               %.2f\n", spend/impressions*1000)
	}
	if revenue > 0 && spend > 0 {
		fmt.Fprintf(b, "   ROAS:              %.2f\n", revenue/spend)
	}
	fmt.Fprintln(b)

	writeTopAds(b, t, colName, colSpend)
}

// detailRows returns the indexes of rows carrying an ad name. The
// campaign-total row leaves the name blank.
func detailRows(t *sniff.Table, colName int) []int {
	if colName < 0 {
		return nil
	}
	var rows []int
	for i := range t.Rows {
		name := strings.TrimSpace(t.Cell(i, colName))
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}
		rows = append(rows, i)
	}
	return rows
}

// writeTopAds ranks detail rows by spend. Summary rows have no ad name
// and are excluded so a campaign-total row cannot dominate the ranking.
func writeTopAds(b *strings.Builder, t *sniff.Table, colName, colSpend int) {
	if colName < 0 || colSpend < 0 {
		return
	}

	type ad struct {
		name  string
		spend float64
	}
	var ads []ad
	for i := range t.Rows {
		name := strings.TrimSpace(t.Cell(i, colName))
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}
		spend, ok := normalize.ParseNumber(t.Cell(i, colSpend), true)
		if !ok {
			continue
		}
		ads = append(ads, ad{name: name, spend: spend})
	}
	if len(ads) == 0 {
		return
	}

	sort.Slice(ads, func(i, j int) bool { return ads[i].spend > ads[j].spend })
	if len(ads) > topAds {
		ads = ads[:topAds]
	}

	fmt.Fprintln(b, "TOP ADS BY SPEND:")
	for i, a := range ads {
		fmt.Fprintf(b, "   %d. %-40s %12s\n", i+1, truncate(a.name, 40), normalize.FormatCompact(a.spend))
	}
	fmt.Fprintln(b)
}

func writeContent(b *strings.Builder, t *sniff.Table) {
	colTitle := t.ColumnIndex("title", "caption", "description")
	colLink := t.ColumnIndex("link")
	colViews := t.ColumnIndex("view")
	colLikes := t.ColumnIndex("like")

	type post struct {
		label string
		views float64
		likes float64
	}
	var posts []post
	for i := range t.Rows {
		label := ""
		if colTitle >= 0 {
			label = strings.TrimSpace(t.Cell(i, colTitle))
		}
		if label == "" && colLink >= 0 {
			label = t.Cell(i, colLink)
		}
		if label == "" {
			continue
		}
		p := post{label: label}
		if colViews >= 0 {
			p.views = normalize.ParseCount(t.Cell(i, colViews))
		}
		if colLikes >= 0 {
			p.likes = normalize.ParseCount(t.Cell(i, colLikes))
		}
		posts = append(posts, p)
	}
	if len(posts) == 0 {
		return
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].views > posts[j].views })
	if len(posts) > topPosts {
		posts = posts[:topPosts]
	}

	fmt.Fprintln(b, "TOP CONTENT BY VIEWS:")
	for i, p := range posts {
		fmt.Fprintf(b, "   %2d. %-45s │ Views: %10s │ Likes: %8s\n",
			i+1, truncate(p.label, 45),
			normalize.FormatCompact(p.views),
			normalize.FormatCompact(p.likes),
		)
	}
	fmt.Fprintln(b)
}

func writeDemographics(b *strings.Builder, t *sniff.Table) {
	if len(t.Columns) < 2 {
		writeColumnStats(b, t)
		return
	}

	fmt.Fprintln(b, "DEMOGRAPHIC BREAKDOWN:")
	fmt.Fprintln(b)
	for i := range t.Rows {
		label := t.Cell(i, 0)
		if strings.TrimSpace(label) == "" {
			continue
		}
		value, ok := normalize.ParseNumber(t.Cell(i, 1), true)
		if !ok {
			continue
		}
		if value > 0 && value < 1 {
			value *= 100
		}
		fmt.Fprintf(b, "   %-35s %10s\n", truncate(label, 35), normalize.FormatCompact(value))
	}
	fmt.Fprintln(b)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
