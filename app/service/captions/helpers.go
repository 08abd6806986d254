package captions

import (
	"strings"

	"videoadguard/app/client/bilibili"
	"videoadguard/app/dto"
)

// pickSubtitleTrack prefers a Chinese track, otherwise takes the first one.
func pickSubtitleTrack(tracks []bilibili.SubtitleTrack) (bilibili.SubtitleTrack, bool) {
	usable := make([]bilibili.SubtitleTrack, 0, len(tracks))
	for _, track := range tracks {
		if track.SubtitleURL != "" {
			usable = append(usable, track)
		}
	}

	if len(usable) == 0 {
		return bilibili.SubtitleTrack{}, false //nolint:exhaustruct
	}

	for _, track := range usable {
		if strings.HasPrefix(track.Lan, "zh") {
			return track, true
		}
	}

	return usable[0], true
}

// normalizeCaptions drops empty lines, collapses consecutive duplicates and
// reassigns contiguous indices. Transcription backends tend to emit repeated
// lines over silence.
func normalizeCaptions(entries []dto.CaptionEntry) []dto.CaptionEntry {
	result := make([]dto.CaptionEntry, 0, len(entries))

	var prevText string

	for _, entry := range entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}

		if len(result) > 0 && text == prevText {
			// extend the previous line instead of repeating it
			result[len(result)-1].EndSeconds = entry.EndSeconds
			continue
		}

		result = append(result, dto.CaptionEntry{
			Index:        len(result),
			Text:         text,
			StartSeconds: entry.StartSeconds,
			EndSeconds:   entry.EndSeconds,
		})
		prevText = text
	}

	return result
}
