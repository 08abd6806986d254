package classify

import (
	"errors"
	"testing"

	"videoadguard/app/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJudgmentFenced(t *testing.T) {
	raw := "```json\n{\"exist\": true, \"good_name\": [\"某品牌耳机\"], \"index_lists\": [[1, 2]]}\n```"

	judgment, err := parseJudgment(raw)
	require.NoError(t, err)

	assert.True(t, judgment.Exists)
	assert.Equal(t, []dto.IndexRange{{Start: 1, End: 2}}, judgment.IndexRanges)
	assert.Equal(t, []string{"某品牌耳机"}, judgment.ProductNames)
}

func TestParseJudgmentPlain(t *testing.T) {
	judgment, err := parseJudgment(`{"exist": false, "good_name": [], "index_lists": []}`)
	require.NoError(t, err)

	assert.False(t, judgment.Exists)
	assert.Empty(t, judgment.IndexRanges)
	assert.Empty(t, judgment.ProductNames)
}

func TestParseJudgmentEscapedQuotes(t *testing.T) {
	// some models escape the whole payload
	judgment, err := parseJudgment(`{\"exist\": true, \"index_lists\": [[10, 20]]}`)
	require.NoError(t, err)

	assert.True(t, judgment.Exists)
	assert.Equal(t, []dto.IndexRange{{Start: 10, End: 20}}, judgment.IndexRanges)
}

func TestParseJudgmentNonBooleanExist(t *testing.T) {
	_, err := parseJudgment(`{"exist": "yes", "index_lists": [[1, 2]]}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaInvalid))
}

func TestParseJudgmentNotJSON(t *testing.T) {
	_, err := parseJudgment("抱歉，我无法判断这个视频。")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParseFailed))
}

func TestParseJudgmentMalformedRanges(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "range too long", raw: `{"exist": true, "index_lists": [[1, 2, 3]]}`},
		{name: "non-numeric range", raw: `{"exist": true, "index_lists": [["a", "b"]]}`},
		{name: "missing index_lists", raw: `{"exist": true}`},
		{name: "index_lists not array", raw: `{"exist": true, "index_lists": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJudgment(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaInvalid))
		})
	}
}

func TestParseJudgmentIgnoresBadProductNames(t *testing.T) {
	judgment, err := parseJudgment(`{"exist": true, "good_name": [1, "真商品", ""], "index_lists": [[0, 3]]}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"真商品"}, judgment.ProductNames)
}

func TestBuildCaptionsJSON(t *testing.T) {
	captions := []dto.CaptionEntry{
		{Index: 0, Text: "第一句", StartSeconds: 0, EndSeconds: 1},
		{Index: 1, Text: `带"引号"的`, StartSeconds: 1, EndSeconds: 2},
	}

	assert.Equal(t, `{"0":"第一句","1":"带\"引号\"的"}`, buildCaptionsJSON(captions))
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t,
		`{"exist":true}`,
		cleanResponse("```json\n{\"exist\": true}\n```"),
	)
}

func TestBuildUserPromptRestricted(t *testing.T) {
	prompt := buildUserPrompt(Input{
		Title: "某视频",
		TopComment: &dto.TopComment{
			Message: "购买链接见评论区",
			Links:   nil,
		},
		Captions:     []dto.CaptionEntry{{Index: 0, Text: "大家好", StartSeconds: 0, EndSeconds: 1}},
		ProductHints: []string{"某品牌键盘"},
		Restricted:   true,
	})

	assert.Contains(t, prompt, "某品牌键盘")
	assert.Contains(t, prompt, "购买链接见评论区")
	assert.Contains(t, prompt, `{"0":"大家好"}`)
}
