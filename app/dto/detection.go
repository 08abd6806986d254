package dto

import "time"

// CaptionEntry is one timestamped line of the video's subtitle or transcript
// sequence. Index order equals chronological order.
type CaptionEntry struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// IndexRange is a caption-index span [Start, End] as returned by the model,
// inclusive on both ends.
type IndexRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RawAdJudgment is the validated model output, before index ranges are
// normalized into time intervals.
type RawAdJudgment struct {
	Exists       bool         `json:"exists"`
	IndexRanges  []IndexRange `json:"index_ranges"`
	ProductNames []string     `json:"product_names"`
}

// AdTimeInterval is a merged ad segment in video time.
type AdTimeInterval struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

func (i AdTimeInterval) Duration() float64 {
	return i.EndSeconds - i.StartSeconds
}

// DetectionResult is the cacheable outcome of one full analysis of a video.
// Replaced wholesale on re-analysis, never mutated in place.
type DetectionResult struct {
	VideoID      string           `json:"video_id"`
	OwnerUID     string           `json:"owner_uid"`
	AdExists     bool             `json:"ad_exists"`
	ProductNames []string         `json:"product_names"`
	Intervals    []AdTimeInterval `json:"intervals"`
	IsConfident  bool             `json:"is_confident"`
	ComputedAt   time.Time        `json:"computed_at"`
}

// WhitelistEntry is an uploader exempted from detection.
type WhitelistEntry struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"display_name"`
	AddedAt     time.Time `json:"added_at"`
}

// CommerceLink is a purchase link extracted from the pinned comment.
type CommerceLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// TopComment is the uploader's pinned comment with its link metadata.
type TopComment struct {
	Message string         `json:"message"`
	Links   []CommerceLink `json:"links"`
}

// AdMarker is a progress-bar marker, positioned proportionally to the video
// duration.
type AdMarker struct {
	StartPercent float64 `json:"start_percent"`
	WidthPercent float64 `json:"width_percent"`
}
