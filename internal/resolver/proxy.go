package resolver

import (
	"net/url"
	"strings"
)

type ProxyBuilder struct {
	baseUrl string
}

func NewProxyBuilder(baseUrl string) *ProxyBuilder {
	return &ProxyBuilder{baseUrl: strings.TrimRight(baseUrl, "/")}
}

// BuildProxyUrl wraps the original URL through the media proxy, which
// re-requests the source server-side with controlled headers.
func (p ProxyBuilder) BuildProxyUrl(videoUrl, referer string) string {
	v := url.Values{}
	v.Set("url", videoUrl)
	if referer != "" {
		v.Set("referer", referer)
	}

	return p.baseUrl + "/proxy?" + v.Encode()
}
