package classify

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		filename string
		want     FileType
	}{
		{
			name:     "meta ads italian export",
			columns:  []string{"Nome dell'inserzione", "Importo speso (EUR)", "Impression", "Copertura"},
			filename: "meta_ads_export.csv",
			want:     AdCampaign,
		},
		{
			name:     "meta ads english export",
			columns:  []string{"Ad name", "Amount spent (USD)", "Impressions"},
			filename: "ads.csv",
			want:     AdCampaign,
		},
		{
			name:     "tiktok content export",
			columns:  []string{"Video Link", "Post time", "Total views", "Total likes"},
			filename: "video_performance.csv",
			want:     Content,
		},
		{
			name:     "instagram permalink content",
			columns:  []string{"Permalink", "Publish time", "Visualizzazioni"},
			filename: "post.csv",
			want:     Content,
		},
		{
			name:     "gender flat italian",
			columns:  []string{"Età", "Uomini", "Donne"},
			filename: "audience.csv",
			want:     DemographicGender,
		},
		{
			name:     "gender age pivot",
			columns:  []string{"Sesso", "18-24", "25-34", "65+"},
			filename: "followers_age.csv",
			want:     DemographicGender,
		},
		{
			name:     "gender distribution tiktok",
			columns:  []string{"Gender", "Distribution"},
			filename: "gender.csv",
			want:     DemographicGender,
		},
		{
			name:     "geo two columns",
			columns:  []string{"Città principali", "Follower"},
			filename: "cities.csv",
			want:     DemographicGeo,
		},
		{
			name:     "geo with distribution",
			columns:  []string{"Country", "Distribution", "Rank"},
			filename: "top_territories.csv",
			want:     DemographicGeo,
		},
		{
			name:     "followers series from filename",
			columns:  []string{"Date", "Followers"},
			filename: "follower_growth.csv",
			want:     TimeSeriesFollowers,
		},
		{
			name:     "reach series italian filename",
			columns:  []string{"Data", "Valore"},
			filename: "copertura_novembre.csv",
			want:     TimeSeriesReach,
		},
		{
			name:     "visits series",
			columns:  []string{"Giorno", "Visite"},
			filename: "visite_profilo.csv",
			want:     TimeSeriesVisits,
		},
		{
			name:     "generic series without filename hint",
			columns:  []string{"Date", "Primary", "Secondary"},
			filename: "export_1234.csv",
			want:     TimeSeriesGeneric,
		},
		{
			name:     "no signals at all",
			columns:  []string{"Foo", "Bar"},
			filename: "mystery.csv",
			want:     Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.columns, tt.filename); got != tt.want {
				t.Errorf("Detect(%v, %q) = %s, want %s", tt.columns, tt.filename, got, tt.want)
			}
		})
	}
}

func TestFileTypeHelpers(t *testing.T) {
	if !TimeSeriesReach.IsTimeSeries() {
		t.Error("TimeSeriesReach should be a time series")
	}
	if Content.IsTimeSeries() {
		t.Error("Content is not a time series")
	}
	if got := TimeSeriesVisits.MetricName(); got != "Profile Visits" {
		t.Errorf("MetricName(visits) = %q, want Profile Visits", got)
	}
	if got := TimeSeriesGeneric.MetricName(); got != "" {
		t.Errorf("MetricName(generic) = %q, want empty", got)
	}
}
