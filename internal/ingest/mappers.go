package ingest

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yangkidd/socialdw/internal/classify"
	"github.com/yangkidd/socialdw/internal/normalize"
	"github.com/yangkidd/socialdw/internal/sniff"
	"github.com/yangkidd/socialdw/internal/store"
)

// adPlatform is the platform label ad-campaign metrics are always stored
// under, regardless of the label the batch was submitted with.
const adPlatform = "Meta Ads"

const captionLimit = 500

var (
	shortVideoID = regexp.MustCompile(`video/(\d+)`)
	photoReelID  = regexp.MustCompile(`/(?:p|reel)/([^/?]+)`)

	titleCaser = cases.Title(language.English)
)

// emptyLabel reports whether a cell holds no usable label.
func emptyLabel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none":
		return true
	}
	return false
}

// PostID extracts the canonical post id from a content link: the numeric
// id after "video/" for short-form video links, the slug after "/p/" or
// "/reel/" for photo and reel links, the whole link otherwise.
func PostID(link string) string {
	if m := shortVideoID.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := photoReelID.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return link
}

func truncateCaption(s string) string {
	r := []rune(s)
	if len(r) <= captionLimit {
		return s
	}
	return string(r[:captionLimit])
}

// saveAdCampaign writes one spend metric per ad row, plus an impressions
// metric when positive. Summary rows carry no ad name and are excluded so
// totals are not double counted.
func (s *Service) saveAdCampaign(ctx context.Context, b Batch, t *sniff.Table, today string) (int, string, error) {
	colName := t.ColumnIndex("inserzione", "ad name")
	if colName < 0 {
		return 0, "no ad name column found", nil
	}
	colSpend := t.ColumnIndex("spes", "spent")
	colImp := t.ColumnIndex("impression")

	rows := 0
	for i := range t.Rows {
		name := t.Cell(i, colName)
		if emptyLabel(name) {
			continue
		}

		var spend float64
		if colSpend >= 0 {
			spend, _ = normalize.ParseNumber(t.Cell(i, colSpend), true)
		}
		if err := b.UpsertMetric(ctx, store.MetricPoint{
			Platform: adPlatform,
			Metric:   "Spend - " + name,
			Value:    spend,
			Date:     today,
			Source:   SourceTag,
		}); err != nil {
			return 0, "", err
		}

		if colImp >= 0 {
			if impressions := normalize.ParseCount(t.Cell(i, colImp)); impressions > 0 {
				if err := b.UpsertMetric(ctx, store.MetricPoint{
					Platform: adPlatform,
					Metric:   "Impressions - " + name,
					Value:    impressions,
					Date:     today,
					Source:   SourceTag,
				}); err != nil {
					return 0, "", err
				}
			}
		}
		rows++
	}
	return rows, "", nil
}

// saveContent writes one inventory row and one same-day performance
// snapshot per post. The snapshot is keyed by the processing date, not the
// publish date: performance is tracked as of when it was measured.
func (s *Service) saveContent(ctx context.Context, b Batch, t *sniff.Table, platform, today string) (int, string, error) {
	colLink := t.ColumnIndex("link")
	colPub := t.ColumnIndex("post time", "publish")
	if colLink < 0 || colPub < 0 {
		return 0, "missing link or publish date column", nil
	}
	colTitle := t.ColumnIndex("title", "caption")
	colViews := t.ColumnIndex("view")
	colLikes := t.ColumnIndex("like")
	colComments := t.ColumnIndex("comment")
	colShares := t.ColumnIndex("share", "condivision")

	count := func(i, col int) float64 {
		if col < 0 {
			return 0
		}
		return normalize.ParseCount(t.Cell(i, col))
	}

	rows := 0
	for i := range t.Rows {
		link := t.Cell(i, colLink)
		if emptyLabel(link) {
			continue
		}
		pubDate, ok := normalize.ParseDate(t.Cell(i, colPub))
		if !ok {
			continue
		}

		var caption string
		if colTitle >= 0 {
			caption = truncateCaption(t.Cell(i, colTitle))
		}

		postID := PostID(link)
		if err := b.UpsertContent(ctx, store.ContentItem{
			PostID:        postID,
			Platform:      platform,
			DatePublished: pubDate,
			Caption:       caption,
			Link:          link,
		}); err != nil {
			return 0, "", err
		}
		if err := b.UpsertSnapshot(ctx, store.Snapshot{
			PostID:       postID,
			DateRecorded: today,
			Views:        count(i, colViews),
			Likes:        count(i, colLikes),
			Comments:     count(i, colComments),
			Shares:       count(i, colShares),
		}); err != nil {
			return 0, "", err
		}
		rows++
	}
	return rows, "", nil
}

var (
	femaleLabels = []string{"donne", "femmine", "female", "f"}
	maleLabels   = []string{"uomini", "maschi", "male", "m"}
)

// genderLabel canonicalizes a free-form gender cell. Female markers are
// checked first because "female" contains "male" as a substring.
func genderLabel(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, kw := range femaleLabels {
		if strings.Contains(lower, kw) {
			return "Female"
		}
	}
	for _, kw := range maleLabels {
		if strings.Contains(lower, kw) {
			return "Male"
		}
	}
	return titleCaser.String(lower)
}

// saveGender handles the two gender layouts: the age-pivot layout with
// age-range column names and one row per gender, and the flat
// gender/distribution layout. Flat fractional values are rescaled to
// percentages; a legitimate value between 0 and 1 percent would be
// rescaled too, which is a known limitation of the heuristic.
func (s *Service) saveGender(ctx context.Context, b Batch, t *sniff.Table, platform, today string) (int, string, error) {
	var ageCols []int
	for i, c := range t.Columns {
		if classify.AgeRangePattern.MatchString(c) {
			ageCols = append(ageCols, i)
		}
	}

	rows := 0
	switch {
	case len(t.Columns) >= 3 && len(ageCols) > 0:
		for i := range t.Rows {
			gender := genderLabel(t.Cell(i, 0))
			if gender == "" {
				continue
			}
			for _, col := range ageCols {
				value := normalize.ParseCount(t.Cell(i, col))
				if value <= 0 {
					continue
				}
				metric := "Audience Gender " + gender + " (" + t.Columns[col] + ")"
				if err := b.UpsertMetric(ctx, store.MetricPoint{
					Platform: platform,
					Metric:   metric,
					Value:    value,
					Date:     today,
					Source:   SourceTag,
				}); err != nil {
					return 0, "", err
				}
				rows++
			}
		}

	case len(t.Columns) >= 2 && strings.Contains(strings.ToLower(t.Columns[0]), "gender"):
		for i := range t.Rows {
			raw := t.Cell(i, 0)
			if emptyLabel(raw) {
				continue
			}
			value, ok := normalize.ParseNumber(t.Cell(i, 1), true)
			if !ok {
				continue
			}
			if value > 0 && value < 1 {
				value *= 100
			}
			if err := b.UpsertMetric(ctx, store.MetricPoint{
				Platform: platform,
				Metric:   "Audience Gender " + titleCaser.String(strings.ToLower(raw)),
				Value:    value,
				Date:     today,
				Source:   SourceTag,
			}); err != nil {
				return 0, "", err
			}
			rows++
		}

	default:
		return 0, "unsupported gender demographics layout", nil
	}
	return rows, "", nil
}

// saveGeo assumes column 0 is the location and column 1 the value, with
// the same fractional-to-percentage rescaling as the flat gender layout.
func (s *Service) saveGeo(ctx context.Context, b Batch, t *sniff.Table, platform, today string) (int, string, error) {
	if len(t.Columns) < 2 {
		return 0, "geo file needs a location and a value column", nil
	}

	rows := 0
	for i := range t.Rows {
		location := t.Cell(i, 0)
		if emptyLabel(location) {
			continue
		}
		value, ok := normalize.ParseNumber(t.Cell(i, 1), true)
		if !ok {
			continue
		}
		if value > 0 && value < 1 {
			value *= 100
		}
		if err := b.UpsertMetric(ctx, store.MetricPoint{
			Platform: platform,
			Metric:   "Audience Geo " + location,
			Value:    value,
			Date:     today,
			Source:   SourceTag,
		}); err != nil {
			return 0, "", err
		}
		rows++
	}
	return rows, "", nil
}

// saveTimeSeries writes one metric point per (row, value column). With a
// single value column the metric name comes from the filename-derived
// type, overriding the raw column header; with several, each column keeps
// its own title-cased name.
func (s *Service) saveTimeSeries(ctx context.Context, b Batch, t *sniff.Table, ft classify.FileType, platform string) (int, string, error) {
	colDate := t.ColumnIndex("date", "data", "time", "giorno")
	if colDate < 0 {
		return 0, "no date column found", nil
	}

	var valueCols []int
	for i := range t.Columns {
		if i != colDate {
			valueCols = append(valueCols, i)
		}
	}
	if len(valueCols) == 0 {
		return 0, "no value columns found", nil
	}

	metricBase := ft.MetricName()
	if metricBase == "" {
		metricBase = "Metric"
	}

	rows := 0
	for i := range t.Rows {
		date, ok := normalize.ParseDate(t.Cell(i, colDate))
		if !ok {
			continue
		}
		for _, col := range valueCols {
			metric := metricBase
			if len(valueCols) > 1 {
				metric = titleCaser.String(strings.ReplaceAll(strings.ToLower(t.Columns[col]), "_", " "))
			}
			if err := b.UpsertMetric(ctx, store.MetricPoint{
				Platform: platform,
				Metric:   metric,
				Value:    normalize.ParseCount(t.Cell(i, col)),
				Date:     date,
				Source:   SourceTag,
			}); err != nil {
				return 0, "", err
			}
			rows++
		}
	}
	return rows, "", nil
}
