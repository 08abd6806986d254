package bilibili

import (
	"net/url"
	"sort"
	"strings"

	"videoadguard/app/dto"

	"github.com/elliotchance/pie/v2"
)

// commerceHosts are domains whose links in a pinned comment indicate a
// sponsored product placement.
var commerceHosts = []string{
	"taobao.com",
	"tmall.com",
	"jd.com",
	"pinduoduo.com",
	"yangkeduo.com",
	"mall.bilibili.com",
	"gaoneng.bilibili.com",
}

func isCommerceURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := parsed.Hostname()

	return pie.Any(commerceHosts, func(commerce string) bool {
		return host == commerce || strings.HasSuffix(host, "."+commerce)
	})
}

func extractCommerceLinks(jumpURLs map[string]jumpURLInfo) []dto.CommerceLink {
	var result []dto.CommerceLink

	for rawURL, info := range jumpURLs {
		if !isCommerceURL(rawURL) && !isCommerceURL(info.AppURL) {
			continue
		}

		result = append(result, dto.CommerceLink{
			URL:   rawURL,
			Title: info.Title,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].URL < result[j].URL
	})

	return result
}

// fixSubtitleURL resolves protocol-relative subtitle URLs.
func fixSubtitleURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "//") {
		return "https:" + rawURL
	}

	return rawURL
}

// LowestBandwidthAudio picks the smallest audio stream from a DASH manifest.
// Transcription quality does not depend on bitrate, size does.
func LowestBandwidthAudio(streams []DashAudio) (DashAudio, bool) {
	if len(streams) == 0 {
		return DashAudio{}, false //nolint:exhaustruct
	}

	best := streams[0]
	for _, stream := range streams[1:] {
		if stream.Bandwidth < best.Bandwidth {
			best = stream
		}
	}

	return best, true
}

// fixAudioMime maps the m4s segment types bilibili serves to a MIME type
// transcription backends accept.
func fixAudioMime(mime string) string {
	switch {
	case mime == "", mime == "application/octet-stream", strings.Contains(mime, "m4s"):
		return "audio/m4a"
	default:
		return mime
	}
}
