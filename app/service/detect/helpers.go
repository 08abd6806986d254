package detect

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"videoadguard/app/config"
	"videoadguard/app/dto"

	"github.com/elliotchance/pie/v2"
)

var bvidPattern = regexp.MustCompile(`BV[0-9A-Za-z]+`)

// resolveVideoID extracts the bvid from a watch page URL. Returns empty when
// the URL does not point at a video.
func resolveVideoID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if strings.Contains(parsed.Path, "/video/") {
		if match := bvidPattern.FindString(parsed.Path); match != "" {
			return match
		}
	}

	if bvid := parsed.Query().Get("bvid"); bvid != "" {
		return bvidPattern.FindString(bvid)
	}

	return ""
}

// normalizeRanges drops malformed pairs, deduplicates, sorts and merges
// overlapping or near-adjacent index ranges. Ranges one index apart merge:
// models tend to split one continuous ad into near-contiguous pieces.
func normalizeRanges(ranges []dto.IndexRange) []dto.IndexRange {
	valid := pie.Filter(ranges, func(r dto.IndexRange) bool {
		return r.End >= r.Start
	})
	valid = pie.Unique(valid)

	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}

		return valid[i].End < valid[j].End
	})

	if len(valid) == 0 {
		return nil
	}

	result := []dto.IndexRange{valid[0]}

	for _, r := range valid[1:] {
		last := &result[len(result)-1]

		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}

			continue
		}

		result = append(result, r)
	}

	return result
}

// rangesToIntervals maps caption index ranges to elapsed time using the
// caption timestamps. Out-of-bounds indices map to 0 instead of failing.
func rangesToIntervals(ranges []dto.IndexRange, captions []dto.CaptionEntry) []dto.AdTimeInterval {
	result := make([]dto.AdTimeInterval, 0, len(ranges))

	for _, r := range ranges {
		var start, end float64

		if r.Start >= 0 && r.Start < len(captions) {
			start = captions[r.Start].StartSeconds
		}
		if r.End >= 0 && r.End < len(captions) {
			end = captions[r.End].EndSeconds
		}

		result = append(result, dto.AdTimeInterval{
			StartSeconds: start,
			EndSeconds:   end,
		})
	}

	return result
}

// isConfident gates automatic skipping. Many raw segments or a detection
// covering most of the video point at model over-classification.
func isConfident(intervals []dto.AdTimeInterval, rawSegments int, videoDuration float64, maxRawSegments int, maxAdRatio float64) bool {
	if len(intervals) == 0 {
		return false
	}

	if rawSegments > maxRawSegments {
		return false
	}

	var total float64
	for _, interval := range intervals {
		total += interval.Duration()
	}

	return total < maxAdRatio*videoDuration
}

// formatTimestamp renders seconds as [h:]mm:ss.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}

	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

func uidString(mid int64) string {
	return strconv.FormatInt(mid, 10)
}

func productHints(topComment *dto.TopComment) []string {
	if topComment == nil {
		return nil
	}

	return pie.Filter(pie.Map(topComment.Links, func(link dto.CommerceLink) string {
		return strings.TrimSpace(link.Title)
	}), func(title string) bool {
		return title != ""
	})
}

func negativeResult(videoID, ownerUID string) dto.DetectionResult {
	return dto.DetectionResult{
		VideoID:      videoID,
		OwnerUID:     ownerUID,
		AdExists:     false,
		ProductNames: nil,
		Intervals:    nil,
		IsConfident:  false,
		ComputedAt:   time.Now(),
	}
}

// buildResult turns a validated model judgment into the cached detection
// outcome.
func buildResult(
	videoID string,
	ownerUID string,
	judgment dto.RawAdJudgment,
	captionEntries []dto.CaptionEntry,
	videoDuration float64,
	detectorCfg config.Detector,
) dto.DetectionResult {
	if !judgment.Exists {
		return negativeResult(videoID, ownerUID)
	}

	rawSegments := len(judgment.IndexRanges)
	merged := normalizeRanges(judgment.IndexRanges)
	intervals := rangesToIntervals(merged, captionEntries)

	return dto.DetectionResult{
		VideoID:      videoID,
		OwnerUID:     ownerUID,
		AdExists:     len(intervals) > 0,
		ProductNames: judgment.ProductNames,
		Intervals:    intervals,
		IsConfident: isConfident(
			intervals,
			rawSegments,
			videoDuration,
			detectorCfg.MaxRawSegments,
			detectorCfg.MaxAdRatio,
		),
		ComputedAt: time.Now(),
	}
}

// summarize produces the human-readable detection status.
func summarize(intervals []dto.AdTimeInterval) string {
	if len(intervals) == 0 {
		return "无广告内容"
	}

	parts := pie.Map(intervals, func(interval dto.AdTimeInterval) string {
		return formatTimestamp(interval.StartSeconds) + "~" + formatTimestamp(interval.EndSeconds)
	})

	return fmt.Sprintf("发现%d处广告：%s", len(intervals), strings.Join(parts, " | "))
}
