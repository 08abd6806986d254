package llm

import (
	"testing"

	"videoadguard/app/config"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	cfg := &config.Config{ //nolint:exhaustruct
		LLM: config.LLM{ //nolint:exhaustruct
			Model:       "glm-4-flash",
			Temperature: 0.1,
			MaxTokens:   1024,
		},
	}

	request := buildRequest(cfg, "system text", "user text")

	assert.Equal(t, "glm-4-flash", request.Model)
	assert.Equal(t, float32(0.1), request.Temperature)
	assert.Equal(t, 1024, request.MaxTokens)

	// the model must be pinned to JSON object output, prose completions are
	// unparseable downstream
	require.NotNil(t, request.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, request.ResponseFormat.Type)

	require.Len(t, request.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, request.Messages[0].Role)
	assert.Equal(t, "system text", request.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, request.Messages[1].Role)
	assert.Equal(t, "user text", request.Messages[1].Content)
}
