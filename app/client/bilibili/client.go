package bilibili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"videoadguard/app/config"
	"videoadguard/app/dto"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jellydator/ttlcache/v3"
	"github.com/samber/do"
	"github.com/sony/gobreaker"
)

type Client struct {
	cfg        *config.Config
	httpClient *retryablehttp.Client
	breaker    *gobreaker.CircuitBreaker
	wbiCache   *ttlcache.Cache[string, wbiKeys]
}

type VideoOwner struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
}

type VideoInfo struct {
	Bvid     string     `json:"bvid"`
	Aid      int64      `json:"aid"`
	Cid      int64      `json:"cid"`
	Title    string     `json:"title"`
	Duration int        `json:"duration"` // seconds
	Owner    VideoOwner `json:"owner"`
}

type SubtitleTrack struct {
	Lan         string `json:"lan"`
	LanDoc      string `json:"lan_doc"`
	SubtitleURL string `json:"subtitle_url"`
}

type PlayerInfo struct {
	Subtitle struct {
		Subtitles []SubtitleTrack `json:"subtitles"`
	} `json:"subtitle"`
}

type DashAudio struct {
	ID        int    `json:"id"`
	BaseURL   string `json:"baseUrl"`
	Bandwidth int    `json:"bandwidth"`
	MimeType  string `json:"mimeType"`
}

type PlayURL struct {
	Dash struct {
		Duration int         `json:"duration"`
		Audio    []DashAudio `json:"audio"`
	} `json:"dash"`
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(di *do.Injector) (*Client, error) {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.HTTPClient.Timeout = 30 * time.Second
	httpClient.Logger = nil

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{ //nolint:exhaustruct
		Name:        "bilibili-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	wbiCache := ttlcache.New[string, wbiKeys]()
	go wbiCache.Start()

	return &Client{
		cfg:        do.MustInvoke[*config.Config](di),
		httpClient: httpClient,
		breaker:    breaker,
		wbiCache:   wbiCache,
	}, nil
}

func (c *Client) setHeaders(req *retryablehttp.Request) {
	req.Header.Set("User-Agent", c.cfg.Bilibili.UserAgent)
	req.Header.Set("Referer", c.cfg.Bilibili.Referer)

	if c.cfg.Bilibili.Cookie != "" {
		req.Header.Set("Cookie", c.cfg.Bilibili.Cookie)
	}
}

func (c *Client) getBytes(ctx context.Context, rawURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}

		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("bilibili: unexpected status code %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil //nolint:forcetypeassert
}

func (c *Client) getData(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	body, err := c.getBytes(ctx, rawURL)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("bilibili: decode response: %w", err)
	}

	if envelope.Code != 0 {
		return fmt.Errorf("bilibili: API error code %d: %s", envelope.Code, envelope.Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("bilibili: decode data: %w", err)
		}
	}

	return nil
}

// GetVideoInfo fetches title, owner and the first part's cid for a video.
func (c *Client) GetVideoInfo(ctx context.Context, bvid string) (*VideoInfo, error) {
	params := url.Values{}
	params.Set("bvid", bvid)

	var result VideoInfo
	if err := c.getData(ctx, "https://api.bilibili.com/x/web-interface/view", params, &result); err != nil {
		return nil, fmt.Errorf("GetVideoInfo(%s): %w", bvid, err)
	}

	return &result, nil
}

type replyContent struct {
	Message string                 `json:"message"`
	JumpURL map[string]jumpURLInfo `json:"jump_url"`
}

type jumpURLInfo struct {
	Title  string `json:"title"`
	AppURL string `json:"app_url"`
}

type replyData struct {
	Upper struct {
		Top *struct {
			Content replyContent `json:"content"`
		} `json:"top"`
	} `json:"upper"`
}

// GetTopComment fetches the uploader's pinned comment with its link metadata.
// Returns nil when the video has no pinned comment.
func (c *Client) GetTopComment(ctx context.Context, aid int64) (*dto.TopComment, error) {
	params := url.Values{}
	params.Set("oid", strconv.FormatInt(aid, 10))
	params.Set("type", "1")

	var result replyData
	if err := c.getData(ctx, "https://api.bilibili.com/x/v2/reply", params, &result); err != nil {
		return nil, fmt.Errorf("GetTopComment(%d): %w", aid, err)
	}

	if result.Upper.Top == nil {
		return nil, nil
	}

	content := result.Upper.Top.Content

	return &dto.TopComment{
		Message: content.Message,
		Links:   extractCommerceLinks(content.JumpURL),
	}, nil
}

// GetPlayerInfo fetches the wbi-signed player metadata, carrying the official
// subtitle track list.
func (c *Client) GetPlayerInfo(ctx context.Context, bvid string, cid int64) (*PlayerInfo, error) {
	params := url.Values{}
	params.Set("bvid", bvid)
	params.Set("cid", strconv.FormatInt(cid, 10))

	signed, err := c.signParams(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("signParams: %w", err)
	}

	var result PlayerInfo
	if err := c.getData(ctx, "https://api.bilibili.com/x/player/wbi/v2", signed, &result); err != nil {
		return nil, fmt.Errorf("GetPlayerInfo(%s, %d): %w", bvid, cid, err)
	}

	return &result, nil
}

type captionBody struct {
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

// GetCaptions downloads and parses a subtitle track into caption entries.
func (c *Client) GetCaptions(ctx context.Context, subtitleURL string) ([]dto.CaptionEntry, error) {
	body, err := c.getBytes(ctx, fixSubtitleURL(subtitleURL))
	if err != nil {
		return nil, fmt.Errorf("GetCaptions: %w", err)
	}

	var parsed captionBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("GetCaptions: decode body: %w", err)
	}

	result := make([]dto.CaptionEntry, 0, len(parsed.Body))
	for i, line := range parsed.Body {
		result = append(result, dto.CaptionEntry{
			Index:        i,
			Text:         line.Content,
			StartSeconds: line.From,
			EndSeconds:   line.To,
		})
	}

	return result, nil
}

// GetPlayURL fetches the DASH stream manifest. qn=16 with fnval=16 returns the
// DASH format carrying raw audio streams.
func (c *Client) GetPlayURL(ctx context.Context, bvid string, cid int64) (*PlayURL, error) {
	params := url.Values{}
	params.Set("bvid", bvid)
	params.Set("cid", strconv.FormatInt(cid, 10))
	params.Set("qn", "16")
	params.Set("fnval", "16")

	signed, err := c.signParams(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("signParams: %w", err)
	}

	var result PlayURL
	if err := c.getData(ctx, "https://api.bilibili.com/x/player/wbi/playurl", signed, &result); err != nil {
		return nil, fmt.Errorf("GetPlayURL(%s, %d): %w", bvid, cid, err)
	}

	return &result, nil
}

var ErrAudioTooLarge = errors.New("bilibili: audio stream exceeds download limit")

// DownloadAudio fetches raw audio bytes, refusing streams above limit bytes.
// Returns the bytes and a usable MIME type.
func (c *Client) DownloadAudio(ctx context.Context, audioURL string, limit int64) ([]byte, string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
		if err != nil {
			return nil, err
		}

		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("bilibili: audio download failed with status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			return nil, err
		}

		if int64(len(body)) > limit {
			return nil, ErrAudioTooLarge
		}

		return downloadedAudio{
			bytes: body,
			mime:  fixAudioMime(resp.Header.Get("Content-Type")),
		}, nil
	})
	if err != nil {
		return nil, "", err
	}

	audio := result.(downloadedAudio) //nolint:forcetypeassert

	return audio.bytes, audio.mime, nil
}

type downloadedAudio struct {
	bytes []byte
	mime  string
}
