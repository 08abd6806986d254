package detect

import (
	"testing"

	"videoadguard/app/config"
	"videoadguard/app/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "watch path",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD/",
			want: "BV1xx411c7mD",
		},
		{
			name: "watch path with query churn",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD?spm_id_from=333.1007&t=42",
			want: "BV1xx411c7mD",
		},
		{
			name: "bvid query param",
			url:  "https://www.bilibili.com/medialist/play/watchlater?bvid=BV1yy4y1b7XQ",
			want: "BV1yy4y1b7XQ",
		},
		{
			name: "not a video page",
			url:  "https://www.bilibili.com/",
			want: "",
		},
		{
			name: "garbage",
			url:  "://not-a-url",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveVideoID(tt.url))
		})
	}
}

func TestNormalizeRanges(t *testing.T) {
	tests := []struct {
		name  string
		input []dto.IndexRange
		want  []dto.IndexRange
	}{
		{
			name:  "adjacent ranges merge",
			input: []dto.IndexRange{{Start: 0, End: 2}, {Start: 3, End: 5}},
			want:  []dto.IndexRange{{Start: 0, End: 5}},
		},
		{
			name:  "gap of two does not merge",
			input: []dto.IndexRange{{Start: 0, End: 2}, {Start: 4, End: 5}},
			want:  []dto.IndexRange{{Start: 0, End: 2}, {Start: 4, End: 5}},
		},
		{
			name:  "overlapping ranges merge",
			input: []dto.IndexRange{{Start: 3, End: 4}, {Start: 4, End: 6}},
			want:  []dto.IndexRange{{Start: 3, End: 6}},
		},
		{
			name:  "malformed pair dropped",
			input: []dto.IndexRange{{Start: 5, End: 2}, {Start: 0, End: 1}},
			want:  []dto.IndexRange{{Start: 0, End: 1}},
		},
		{
			name:  "duplicates collapse",
			input: []dto.IndexRange{{Start: 1, End: 2}, {Start: 1, End: 2}},
			want:  []dto.IndexRange{{Start: 1, End: 2}},
		},
		{
			name:  "unsorted input",
			input: []dto.IndexRange{{Start: 10, End: 12}, {Start: 0, End: 2}},
			want:  []dto.IndexRange{{Start: 0, End: 2}, {Start: 10, End: 12}},
		},
		{
			name:  "contained range absorbed",
			input: []dto.IndexRange{{Start: 0, End: 10}, {Start: 2, End: 4}},
			want:  []dto.IndexRange{{Start: 0, End: 10}},
		},
		{
			name:  "empty input",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeRanges(tt.input))
		})
	}
}

func TestNormalizeRangesIdempotent(t *testing.T) {
	input := []dto.IndexRange{{Start: 0, End: 2}, {Start: 3, End: 5}, {Start: 10, End: 12}}

	once := normalizeRanges(input)
	twice := normalizeRanges(once)

	assert.Equal(t, once, twice)
}

func TestNormalizeRangesOutputDisjoint(t *testing.T) {
	input := []dto.IndexRange{
		{Start: 0, End: 5}, {Start: 3, End: 8}, {Start: 20, End: 25}, {Start: 9, End: 10},
	}

	result := normalizeRanges(input)

	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i].Start, result[i-1].End+1)
	}
}

func TestRangesToIntervals(t *testing.T) {
	captions := []dto.CaptionEntry{
		{Index: 0, Text: "a", StartSeconds: 0, EndSeconds: 2},
		{Index: 1, Text: "b", StartSeconds: 2, EndSeconds: 5},
		{Index: 2, Text: "c", StartSeconds: 5, EndSeconds: 9},
	}

	intervals := rangesToIntervals([]dto.IndexRange{{Start: 1, End: 2}}, captions)
	require.Len(t, intervals, 1)
	assert.Equal(t, 2.0, intervals[0].StartSeconds)
	assert.Equal(t, 9.0, intervals[0].EndSeconds)

	// out-of-bounds index maps to zero instead of failing
	intervals = rangesToIntervals([]dto.IndexRange{{Start: 1, End: 99}}, captions)
	require.Len(t, intervals, 1)
	assert.Equal(t, 2.0, intervals[0].StartSeconds)
	assert.Equal(t, 0.0, intervals[0].EndSeconds)
}

func TestIsConfident(t *testing.T) {
	tests := []struct {
		name        string
		intervals   []dto.AdTimeInterval
		rawSegments int
		duration    float64
		want        bool
	}{
		{
			name:        "two segments under half the video",
			intervals:   []dto.AdTimeInterval{{StartSeconds: 0, EndSeconds: 200}, {StartSeconds: 500, EndSeconds: 700}},
			rawSegments: 2,
			duration:    1000,
			want:        true,
		},
		{
			name:        "covers over half the video",
			intervals:   []dto.AdTimeInterval{{StartSeconds: 0, EndSeconds: 600}},
			rawSegments: 1,
			duration:    1000,
			want:        false,
		},
		{
			name:        "too many raw segments",
			intervals:   []dto.AdTimeInterval{{StartSeconds: 0, EndSeconds: 10}},
			rawSegments: 4,
			duration:    1000,
			want:        false,
		},
		{
			name:        "no intervals",
			intervals:   nil,
			rawSegments: 0,
			duration:    1000,
			want:        false,
		},
		{
			name:        "exactly half is not confident",
			intervals:   []dto.AdTimeInterval{{StartSeconds: 0, EndSeconds: 500}},
			rawSegments: 1,
			duration:    1000,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConfident(tt.intervals, tt.rawSegments, tt.duration, 3, 0.5))
		})
	}
}

func TestBuildResultMergesModelRanges(t *testing.T) {
	captionEntries := make([]dto.CaptionEntry, 8)
	for i := range captionEntries {
		captionEntries[i] = dto.CaptionEntry{
			Index:        i,
			Text:         "line",
			StartSeconds: float64(i * 10),
			EndSeconds:   float64(i*10 + 10),
		}
	}

	detectorCfg := config.Detector{
		MaxRawSegments:         3,
		MaxAdRatio:             0.5,
		PrerollSeconds:         3,
		WatchIntervalSeconds:   1,
		SeekEpsilon:            0.1,
		ManualToleranceSeconds: 1,
		CacheTTLHours:          24,
	}

	result := buildResult("BV1test", "12345", dto.RawAdJudgment{
		Exists:       true,
		IndexRanges:  []dto.IndexRange{{Start: 3, End: 4}, {Start: 4, End: 6}},
		ProductNames: []string{"某商品"},
	}, captionEntries, 200, detectorCfg)

	assert.True(t, result.AdExists)
	assert.Equal(t, "12345", result.OwnerUID)
	require.Len(t, result.Intervals, 1)
	assert.Equal(t, 30.0, result.Intervals[0].StartSeconds)
	assert.Equal(t, 70.0, result.Intervals[0].EndSeconds)
	assert.True(t, result.IsConfident)
	assert.Equal(t, []string{"某商品"}, result.ProductNames)
}

func TestBuildResultNegativeJudgment(t *testing.T) {
	result := buildResult("BV1test", "12345", dto.RawAdJudgment{
		Exists:       false,
		IndexRanges:  nil,
		ProductNames: nil,
	}, nil, 200, config.Detector{ //nolint:exhaustruct
		MaxRawSegments: 3,
		MaxAdRatio:     0.5,
	})

	assert.False(t, result.AdExists)
	assert.Empty(t, result.Intervals)
	assert.False(t, result.IsConfident)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:05", formatTimestamp(5.7))
	assert.Equal(t, "02:30", formatTimestamp(150))
	assert.Equal(t, "1:01:05", formatTimestamp(3665))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "无广告内容", summarize(nil))
	assert.Equal(t,
		"发现2处广告：00:10~00:25 | 02:00~02:30",
		summarize([]dto.AdTimeInterval{
			{StartSeconds: 10, EndSeconds: 25},
			{StartSeconds: 120, EndSeconds: 150},
		}),
	)
}
