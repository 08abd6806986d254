package captions

import (
	"testing"

	"videoadguard/app/client/bilibili"
	"videoadguard/app/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickSubtitleTrack(t *testing.T) {
	tests := []struct {
		name    string
		tracks  []bilibili.SubtitleTrack
		wantLan string
		wantOk  bool
	}{
		{
			name: "prefers chinese",
			tracks: []bilibili.SubtitleTrack{
				{Lan: "en-US", LanDoc: "English", SubtitleURL: "//example.com/en.json"},
				{Lan: "zh-CN", LanDoc: "中文（中国）", SubtitleURL: "//example.com/zh.json"},
			},
			wantLan: "zh-CN",
			wantOk:  true,
		},
		{
			name: "falls back to first",
			tracks: []bilibili.SubtitleTrack{
				{Lan: "en-US", LanDoc: "English", SubtitleURL: "//example.com/en.json"},
				{Lan: "ja", LanDoc: "日本語", SubtitleURL: "//example.com/ja.json"},
			},
			wantLan: "en-US",
			wantOk:  true,
		},
		{
			name: "skips tracks without url",
			tracks: []bilibili.SubtitleTrack{
				{Lan: "zh-CN", LanDoc: "中文（中国）", SubtitleURL: ""},
				{Lan: "en-US", LanDoc: "English", SubtitleURL: "//example.com/en.json"},
			},
			wantLan: "en-US",
			wantOk:  true,
		},
		{
			name:   "empty list",
			tracks: nil,
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, ok := pickSubtitleTrack(tt.tracks)
			require.Equal(t, tt.wantOk, ok)

			if tt.wantOk {
				assert.Equal(t, tt.wantLan, track.Lan)
			}
		})
	}
}

func TestNormalizeCaptions(t *testing.T) {
	entries := []dto.CaptionEntry{
		{Index: 0, Text: "  大家好  ", StartSeconds: 0, EndSeconds: 2},
		{Index: 1, Text: "", StartSeconds: 2, EndSeconds: 3},
		{Index: 2, Text: "今天我们来聊聊", StartSeconds: 3, EndSeconds: 5},
		{Index: 3, Text: "今天我们来聊聊", StartSeconds: 5, EndSeconds: 7},
		{Index: 4, Text: "这个话题", StartSeconds: 7, EndSeconds: 9},
	}

	result := normalizeCaptions(entries)
	require.Len(t, result, 3)

	assert.Equal(t, "大家好", result[0].Text)

	// duplicate merged into one line spanning both intervals
	assert.Equal(t, "今天我们来聊聊", result[1].Text)
	assert.Equal(t, 3.0, result[1].StartSeconds)
	assert.Equal(t, 7.0, result[1].EndSeconds)

	// indices stay contiguous after dropping lines
	for i, entry := range result {
		assert.Equal(t, i, entry.Index)
	}
}

func TestNormalizeCaptionsEmpty(t *testing.T) {
	assert.Empty(t, normalizeCaptions(nil))
	assert.Empty(t, normalizeCaptions([]dto.CaptionEntry{
		{Index: 0, Text: "   ", StartSeconds: 0, EndSeconds: 1},
	}))
}
