package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"videoadguard/app/config"
	"videoadguard/app/dto"

	"github.com/avast/retry-go"
	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

var (
	// ErrNoAPIKey is returned when no transcription key is configured.
	ErrNoAPIKey = errors.New("transcribe: api key is not configured")
	// ErrAudioTooLarge is returned for audio payloads above the backend's
	// upload limit.
	ErrAudioTooLarge = errors.New("transcribe: audio payload too large")
)

type Client struct {
	cfg    *config.Config
	openai *openai.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	clientConfig := openai.DefaultConfig(cfg.Transcribe.APIKey)
	clientConfig.BaseURL = cfg.Transcribe.BaseURL

	return &Client{
		cfg:    cfg,
		openai: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func extensionForMime(mime string) string {
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	case "audio/wav":
		return "wav"
	default:
		return "m4a"
	}
}

// Transcribe sends raw audio to the speech-to-text backend and maps the
// timestamped segments to caption entries.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mime string) ([]dto.CaptionEntry, error) {
	if c.cfg.Transcribe.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if int64(len(audio)) > c.cfg.Transcribe.MaxAudioBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrAudioTooLarge, len(audio))
	}

	request := openai.AudioRequest{ //nolint:exhaustruct
		Model:    c.cfg.Transcribe.Model,
		FilePath: "audio." + extensionForMime(mime),
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	var response openai.AudioResponse

	err := retry.Do(func() error {
		var err error

		response, err = c.openai.CreateTranscription(ctx, request)
		if err != nil {
			// Reader was consumed by the failed attempt
			request.Reader = bytes.NewReader(audio)

			return fmt.Errorf("CreateTranscription: %w", err)
		}

		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			slog.WarnContext(ctx, "Transcription failed, retrying",
				slog.Int("attempt", int(n)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	result := make([]dto.CaptionEntry, 0, len(response.Segments))
	for i, segment := range response.Segments {
		result = append(result, dto.CaptionEntry{
			Index:        i,
			Text:         segment.Text,
			StartSeconds: segment.Start,
			EndSeconds:   segment.End,
		})
	}

	return result, nil
}
