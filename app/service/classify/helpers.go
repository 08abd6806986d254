package classify

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"videoadguard/app/dto"

	"github.com/samber/oops"
)

// buildCaptionsJSON renders captions as an index-to-text JSON object with
// keys in numeric order.
func buildCaptionsJSON(captions []dto.CaptionEntry) string {
	var builder strings.Builder

	builder.WriteByte('{')
	for i, caption := range captions {
		if i > 0 {
			builder.WriteByte(',')
		}

		builder.WriteByte('"')
		builder.WriteString(strconv.Itoa(caption.Index))
		builder.WriteString(`":`)

		encoded, err := json.Marshal(caption.Text)
		if err != nil {
			encoded = []byte(`""`)
		}
		builder.Write(encoded)
	}
	builder.WriteByte('}')

	return builder.String()
}

// cleanResponse strips the noise models wrap JSON payloads in: markdown
// fences, a leading "json" language tag, escape backslashes and whitespace.
func cleanResponse(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, raw)

	cleaned = strings.ReplaceAll(cleaned, `\`, "")
	cleaned = strings.ReplaceAll(cleaned, "json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	return cleaned
}

type rawJudgmentPayload struct {
	Exist      any `json:"exist"`
	GoodName   any `json:"good_name"`
	IndexLists any `json:"index_lists"`
}

// parseJudgment converts raw model output into a validated judgment. The
// payload is never trusted: every field is type-checked by hand.
func parseJudgment(raw string) (dto.RawAdJudgment, error) {
	cleaned := cleanResponse(raw)

	var payload rawJudgmentPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return dto.RawAdJudgment{}, oops.Wrapf(ErrParseFailed, "unmarshal: %s", err.Error()) //nolint:exhaustruct
	}

	exists, ok := payload.Exist.(bool)
	if !ok {
		return dto.RawAdJudgment{}, oops.Wrapf(ErrSchemaInvalid, "exist is not a boolean") //nolint:exhaustruct
	}

	rawLists, ok := payload.IndexLists.([]any)
	if payload.IndexLists != nil && !ok {
		return dto.RawAdJudgment{}, oops.Wrapf(ErrSchemaInvalid, "index_lists is not an array") //nolint:exhaustruct
	}

	if exists && payload.IndexLists == nil {
		return dto.RawAdJudgment{}, oops.Wrapf(ErrSchemaInvalid, "index_lists missing") //nolint:exhaustruct
	}

	ranges := make([]dto.IndexRange, 0, len(rawLists))

	for _, item := range rawLists {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			if exists {
				return dto.RawAdJudgment{}, oops.Wrapf(ErrSchemaInvalid, "index_lists element is not a 2-element array") //nolint:exhaustruct
			}

			continue
		}

		start, okStart := pair[0].(float64)
		end, okEnd := pair[1].(float64)

		if !okStart || !okEnd {
			if exists {
				return dto.RawAdJudgment{}, oops.Wrapf(ErrSchemaInvalid, "index_lists element is not numeric") //nolint:exhaustruct
			}

			continue
		}

		ranges = append(ranges, dto.IndexRange{
			Start: int(start),
			End:   int(end),
		})
	}

	return dto.RawAdJudgment{
		Exists:       exists,
		IndexRanges:  ranges,
		ProductNames: parseProductNames(payload.GoodName),
	}, nil
}

// parseProductNames is tolerant: product names are advisory, a malformed list
// never fails the judgment.
func parseProductNames(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var result []string

	for _, item := range items {
		if name, ok := item.(string); ok && strings.TrimSpace(name) != "" {
			result = append(result, strings.TrimSpace(name))
		}
	}

	return result
}
