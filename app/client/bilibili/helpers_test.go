package bilibili

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowestBandwidthAudio(t *testing.T) {
	streams := []DashAudio{
		{ID: 30280, BaseURL: "https://example.com/high.m4s", Bandwidth: 319023, MimeType: "audio/mp4"},
		{ID: 30216, BaseURL: "https://example.com/low.m4s", Bandwidth: 66295, MimeType: "audio/mp4"},
		{ID: 30232, BaseURL: "https://example.com/mid.m4s", Bandwidth: 128551, MimeType: "audio/mp4"},
	}

	best, ok := LowestBandwidthAudio(streams)
	require.True(t, ok)
	assert.Equal(t, 30216, best.ID)

	_, ok = LowestBandwidthAudio(nil)
	assert.False(t, ok)
}

func TestFixAudioMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{mime: "application/octet-stream", want: "audio/m4a"},
		{mime: "video/iso.segment+m4s", want: "audio/m4a"},
		{mime: "", want: "audio/m4a"},
		{mime: "audio/mp4", want: "audio/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, fixAudioMime(tt.mime))
		})
	}
}

func TestFixSubtitleURL(t *testing.T) {
	assert.Equal(t,
		"https://i0.hdslb.com/bfs/subtitle/foo.json",
		fixSubtitleURL("//i0.hdslb.com/bfs/subtitle/foo.json"),
	)
	assert.Equal(t,
		"https://i0.hdslb.com/bfs/subtitle/foo.json",
		fixSubtitleURL("https://i0.hdslb.com/bfs/subtitle/foo.json"),
	)
}

func TestExtractCommerceLinks(t *testing.T) {
	links := extractCommerceLinks(map[string]jumpURLInfo{
		"https://item.taobao.com/item.htm?id=1": {Title: "旗舰店直达"},
		"https://www.bilibili.com/video/BV1xx":  {Title: "相关视频"},
		"https://mall.bilibili.com/detail/2":    {Title: "会员购"},
	})

	require.Len(t, links, 2)
	assert.Equal(t, "https://item.taobao.com/item.htm?id=1", links[0].URL)
	assert.Equal(t, "https://mall.bilibili.com/detail/2", links[1].URL)
}

func TestMixinKeyOf(t *testing.T) {
	keys := wbiKeys{
		imgKey: "7cd084941338484aae1ad9425b84077c",
		subKey: "4932caff0ff746eab6f01bf08b70ac45",
	}

	mixed := mixinKeyOf(keys)
	assert.Len(t, mixed, 32)
	assert.Equal(t, "ea1db124af3c7062474693fa704f4ff8", mixed)
}

func TestBuildSignedQuery(t *testing.T) {
	params := url.Values{}
	params.Set("bvid", "BV1xx411c7mD")
	params.Set("cid", "12345")
	params.Set("wts", "1700000000")

	signed := buildSignedQuery(params, "ea1db124af3c7062474693fa704f4ff8")

	require.NotEmpty(t, signed.Get("w_rid"))
	assert.Len(t, signed.Get("w_rid"), 32)
	assert.Equal(t, "BV1xx411c7mD", signed.Get("bvid"))

	// same inputs, same signature
	again := buildSignedQuery(params, "ea1db124af3c7062474693fa704f4ff8")
	assert.Equal(t, signed.Get("w_rid"), again.Get("w_rid"))
}

func TestBuildSignedQueryStripsUnsafeRunes(t *testing.T) {
	params := url.Values{}
	params.Set("keyword", "it's (a) test!*")

	signed := buildSignedQuery(params, "ea1db124af3c7062474693fa704f4ff8")
	assert.Equal(t, "its a test", signed.Get("keyword"))
}
