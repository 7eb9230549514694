package store

import "time"

// MetricPoint is one observed value of a named metric for a platform on a
// calendar date. Identity key is (platform, metric, date); saving again
// for the same key replaces the previous value.
type MetricPoint struct {
	Platform string  `json:"platform"`
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Date     string  `json:"date"`   // YYYY-MM-DD
	Source   string  `json:"source"` // parsing pipeline provenance tag
}

// ContentItem is one published post or video, keyed by the extracted
// post id. The caption is truncated upstream to 500 characters.
type ContentItem struct {
	PostID        string
	Platform      string
	DatePublished string // YYYY-MM-DD
	Caption       string
	Link          string
}

// Snapshot records a post's performance as measured on a given day. Keyed
// by (post id, date recorded); the recorded date is the processing date,
// not the publish date.
type Snapshot struct {
	PostID       string
	DateRecorded string // YYYY-MM-DD
	Views        float64
	Likes        float64
	Comments     float64
	Shares       float64
}

// ContentPerformance joins a post's inventory row with its most recent
// performance snapshot. Flattened rather than embedding ContentItem and
// Snapshot: both declare PostID, and encoding/json drops conflicting
// promoted fields, which would strip the identity key from API responses.
type ContentPerformance struct {
	PostID        string  `json:"post_id"`
	Platform      string  `json:"platform"`
	DatePublished string  `json:"date_published"`
	Caption       string  `json:"caption"`
	Link          string  `json:"link"`
	DateRecorded  string  `json:"date_recorded"`
	Views         float64 `json:"views"`
	Likes         float64 `json:"likes"`
	Comments      float64 `json:"comments"`
	Shares        float64 `json:"shares"`
}

// UploadLogEntry is one line of the append-only upload audit trail.
type UploadLogEntry struct {
	Filename   string    `json:"filename"`
	Platform   string    `json:"platform"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}
