// Package classify assigns a semantic file type to an uploaded table by
// inspecting its column names and filename. The cascade is heuristic and
// never fails: anything unrecognized falls through to Unknown and is
// handled by the generic paths downstream.
package classify

import (
	"regexp"
	"strings"
)

// FileType is the closed set of semantic file types the pipeline handles.
type FileType string

const (
	AdCampaign        FileType = "AD_CAMPAIGN"
	Content           FileType = "CONTENT"
	DemographicGender FileType = "DEMOGRAPHIC_GENDER"
	DemographicGeo    FileType = "DEMOGRAPHIC_GEO"
	Unknown           FileType = "UNKNOWN"

	TimeSeriesFollowers    FileType = "TIMESERIES_FOLLOWERS"
	TimeSeriesReach        FileType = "TIMESERIES_REACH"
	TimeSeriesImpressions  FileType = "TIMESERIES_IMPRESSIONS"
	TimeSeriesInteractions FileType = "TIMESERIES_INTERACTIONS"
	TimeSeriesVisits       FileType = "TIMESERIES_VISITS"
	TimeSeriesClicks       FileType = "TIMESERIES_CLICKS"
	TimeSeriesViews        FileType = "TIMESERIES_VIEWS"
	TimeSeriesGeneric      FileType = "TIMESERIES_GENERIC"
)

// IsTimeSeries reports whether the type is any of the TIMESERIES variants.
func (ft FileType) IsTimeSeries() bool {
	return strings.HasPrefix(string(ft), "TIMESERIES_")
}

// MetricName returns the canonical metric label for a time-series type, or
// "" for non-time-series and generic types whose metric comes from the
// column header instead.
func (ft FileType) MetricName() string {
	return seriesMetricNames[ft]
}

var seriesMetricNames = map[FileType]string{
	TimeSeriesFollowers:    "Followers",
	TimeSeriesReach:        "Reach",
	TimeSeriesImpressions:  "Impressions",
	TimeSeriesInteractions: "Interactions",
	TimeSeriesVisits:       "Profile Visits",
	TimeSeriesClicks:       "Link Clicks",
	TimeSeriesViews:        "Profile Views",
}

// AgeRangePattern matches demographic age-bucket column names like "18-24"
// or "65+". Exported because the gender row mapper pivots on the same
// columns the classifier detected.
var AgeRangePattern = regexp.MustCompile(`\d{2}-\d{2}|\d{2}\+`)

// table is the pre-lowered view the predicates run against.
type table struct {
	columns  []string // lowercased individual names
	joined   string   // all names joined with spaces
	filename string
}

func (t table) anyColumn(substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(t.joined, s) {
			return true
		}
	}
	return false
}

func (t table) filenameHas(substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(t.filename, s) {
			return true
		}
	}
	return false
}

// rules is the ordered cascade; the first predicate returning ok wins.
// Order encodes priority: ad exports also carry date columns, content
// exports carry "post time", so the specific rules must run before the
// time-series catch-all.
var rules = []func(table) (FileType, bool){
	detectAdCampaign,
	detectContent,
	detectGender,
	detectGeo,
	detectTimeSeries,
}

// Detect classifies a table by column names and filename. It never fails;
// tables matching no rule come back Unknown.
func Detect(columns []string, filename string) FileType {
	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(c)
	}
	t := table{
		columns:  lowered,
		joined:   strings.Join(lowered, " "),
		filename: strings.ToLower(filename),
	}

	for _, rule := range rules {
		if ft, ok := rule(t); ok {
			return ft
		}
	}
	return Unknown
}

func detectAdCampaign(t table) (FileType, bool) {
	italian := t.anyColumn("nome dell'inserzione") && t.anyColumn("speso")
	english := t.anyColumn("ad name") && t.anyColumn("spent")
	if italian || english {
		return AdCampaign, true
	}
	return "", false
}

func detectContent(t table) (FileType, bool) {
	if !t.anyColumn("video link", "permalink", "post time") {
		return "", false
	}
	if !t.anyColumn("total views", "views", "visualizzazioni", "total likes") {
		return "", false
	}
	return Content, true
}

var genderKeywords = []string{"uomini", "donne", "maschi", "femmine", "male", "female"}

func detectGender(t table) (FileType, bool) {
	// Instagram pivot layout: age-range column names, gender labels in rows.
	if len(t.columns) >= 3 {
		for _, c := range t.columns {
			if AgeRangePattern.MatchString(c) {
				return DemographicGender, true
			}
		}
	}
	if len(t.columns) >= 2 && t.anyColumn(genderKeywords...) {
		return DemographicGender, true
	}
	// TikTok flat layout.
	if t.anyColumn("gender") && t.anyColumn("distribution") {
		return DemographicGender, true
	}
	return "", false
}

func detectGeo(t table) (FileType, bool) {
	if !t.anyColumn("territor", "countr", "città", "location", "paes") {
		return "", false
	}
	if t.anyColumn("distribution") || len(t.columns) == 2 {
		return DemographicGeo, true
	}
	return "", false
}

// seriesByFilename maps filename fragments to the time-series variant, in
// priority order.
var seriesByFilename = []struct {
	keywords []string
	fileType FileType
}{
	{[]string{"follower"}, TimeSeriesFollowers},
	{[]string{"reach", "copertura"}, TimeSeriesReach},
	{[]string{"impression"}, TimeSeriesImpressions},
	{[]string{"interazi", "interaction"}, TimeSeriesInteractions},
	{[]string{"visit", "visite"}, TimeSeriesVisits},
	{[]string{"clic", "click"}, TimeSeriesClicks},
	{[]string{"visual"}, TimeSeriesViews},
}

func detectTimeSeries(t table) (FileType, bool) {
	if !t.anyColumn("date", "data", "time", "giorno") {
		return "", false
	}
	for _, m := range seriesByFilename {
		if t.filenameHas(m.keywords...) {
			return m.fileType, true
		}
	}
	return TimeSeriesGeneric, true
}
