package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/watchroom/server/internal/domain"
)

var ErrUnsupportedSource = errors.New("unsupported video source")

type Resolver struct {
	client *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve classifies the source and produces the delivery descriptor. Every
// branch appends a tag to the decision trail so fallbacks can be audited
// later.
func (r Resolver) Resolve(ctx context.Context, videoUrl string) (domain.VideoMeta, error) {
	u, err := url.Parse(videoUrl)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.VideoMeta{}, fmt.Errorf("%w: not an absolute url", ErrUnsupportedSource)
	}

	now := time.Now().UnixMilli()

	if videoId := extractYoutubeId(u); videoId != "" {
		return domain.VideoMeta{
			OriginalUrl:     videoUrl,
			PlaybackUrl:     videoUrl,
			VideoType:       domain.VideoTypeYoutube,
			DeliveryType:    domain.DeliveryTypeYoutube,
			DecisionReasons: []string{"youtube-source", "direct-required"},
			Timestamp:       now,
		}, nil
	}

	path := strings.ToLower(u.Path)
	switch {
	case strings.HasSuffix(path, ".m3u8"):
		return domain.VideoMeta{
			OriginalUrl:     videoUrl,
			PlaybackUrl:     videoUrl,
			VideoType:       domain.VideoTypeHLS,
			DeliveryType:    domain.DeliveryTypeHLS,
			DecisionReasons: []string{"hls-extension"},
			Timestamp:       now,
		}, nil
	case hasFileExtension(path):
		return domain.VideoMeta{
			OriginalUrl:     videoUrl,
			PlaybackUrl:     videoUrl,
			VideoType:       domain.VideoTypeMP4,
			DeliveryType:    domain.DeliveryTypeDirect,
			DecisionReasons: []string{"file-extension"},
			Timestamp:       now,
		}, nil
	}

	contentType, err := r.probeContentType(ctx, videoUrl)
	if err != nil {
		return domain.VideoMeta{}, fmt.Errorf("failed to probe source: %w", err)
	}

	switch {
	case strings.Contains(contentType, "mpegurl"):
		return domain.VideoMeta{
			OriginalUrl:     videoUrl,
			PlaybackUrl:     videoUrl,
			VideoType:       domain.VideoTypeHLS,
			DeliveryType:    domain.DeliveryTypeHLS,
			DecisionReasons: []string{"content-type-probe"},
			Timestamp:       now,
		}, nil
	case strings.HasPrefix(contentType, "video/"):
		return domain.VideoMeta{
			OriginalUrl:     videoUrl,
			PlaybackUrl:     videoUrl,
			VideoType:       domain.VideoTypeMP4,
			DeliveryType:    domain.DeliveryTypeDirect,
			DecisionReasons: []string{"content-type-probe"},
			Timestamp:       now,
		}, nil
	}

	return domain.VideoMeta{}, fmt.Errorf("%w: content type %q", ErrUnsupportedSource, contentType)
}

func (r Resolver) probeContentType(ctx context.Context, videoUrl string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, videoUrl, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return strings.ToLower(resp.Header.Get("Content-Type")), nil
}

func hasFileExtension(path string) bool {
	for _, ext := range []string{".mp4", ".webm", ".ogg", ".mov", ".mkv"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// extractYoutubeId handles watch, embed, shorts and youtu.be URL forms.
func extractYoutubeId(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			return u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			return strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			return strings.TrimPrefix(u.Path, "/shorts/")
		}
	}

	return ""
}
