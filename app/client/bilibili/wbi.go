package bilibili

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

// mixinKeyEncTab is the fixed permutation applied to the concatenated img and
// sub keys before request signing.
var mixinKeyEncTab = []int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

const wbiCacheKey = "wbi"

type wbiKeys struct {
	imgKey string
	subKey string
}

type navData struct {
	WbiImg struct {
		ImgURL string `json:"img_url"`
		SubURL string `json:"sub_url"`
	} `json:"wbi_img"`
}

func keyFromURL(rawURL string) string {
	base := path.Base(rawURL)

	return strings.TrimSuffix(base, path.Ext(base))
}

func mixinKeyOf(keys wbiKeys) string {
	raw := keys.imgKey + keys.subKey

	var builder strings.Builder
	for _, idx := range mixinKeyEncTab {
		if idx < len(raw) {
			builder.WriteByte(raw[idx])
		}
	}

	mixed := builder.String()
	if len(mixed) > 32 {
		mixed = mixed[:32]
	}

	return mixed
}

// buildSignedQuery sorts params by key, strips characters the signer rejects
// from values and appends the w_rid signature.
func buildSignedQuery(params url.Values, mixinKey string) url.Values {
	sanitized := url.Values{}

	for key, values := range params {
		for _, value := range values {
			sanitized.Add(key, strings.Map(func(r rune) rune {
				if strings.ContainsRune("!'()*", r) {
					return -1
				}

				return r
			}, value))
		}
	}

	keys := make([]string, 0, len(sanitized))
	for key := range sanitized {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var query strings.Builder
	for i, key := range keys {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(key))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(sanitized.Get(key)))
	}

	sum := md5.Sum([]byte(query.String() + mixinKey)) //nolint:gosec
	sanitized.Set("w_rid", hex.EncodeToString(sum[:]))

	return sanitized
}

func (c *Client) getWbiKeys(ctx context.Context) (wbiKeys, error) {
	if item := c.wbiCache.Get(wbiCacheKey); item != nil {
		return item.Value(), nil
	}

	var result navData
	if err := c.getData(ctx, "https://api.bilibili.com/x/web-interface/nav", nil, &result); err != nil {
		return wbiKeys{}, fmt.Errorf("fetch nav: %w", err)
	}

	keys := wbiKeys{
		imgKey: keyFromURL(result.WbiImg.ImgURL),
		subKey: keyFromURL(result.WbiImg.SubURL),
	}

	if keys.imgKey == "" || keys.subKey == "" {
		return wbiKeys{}, fmt.Errorf("nav response carries no wbi keys")
	}

	// keys rotate daily, keep them until local midnight
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	c.wbiCache.Set(wbiCacheKey, keys, time.Until(midnight))

	return keys, nil
}

func (c *Client) signParams(ctx context.Context, params url.Values) (url.Values, error) {
	keys, err := c.getWbiKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("getWbiKeys: %w", err)
	}

	params.Set("wts", strconv.FormatInt(time.Now().Unix(), 10))

	return buildSignedQuery(params, mixinKeyOf(keys)), nil
}
