package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/domain"
)

func TestResolveYoutube(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	for _, videoUrl := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtube.com/embed/dQw4w9WgXcQ",
		"https://m.youtube.com/shorts/dQw4w9WgXcQ",
	} {
		meta, err := r.Resolve(ctx, videoUrl)
		require.NoError(t, err, videoUrl)
		assert.Equal(t, domain.VideoTypeYoutube, meta.VideoType, videoUrl)
		assert.Equal(t, domain.DeliveryTypeYoutube, meta.DeliveryType, videoUrl)
		assert.Contains(t, meta.DecisionReasons, "direct-required", videoUrl)
	}
}

func TestResolveByExtension(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	meta, err := r.Resolve(ctx, "https://stream.example.com/live/master.m3u8")
	require.NoError(t, err)
	assert.Equal(t, domain.VideoTypeHLS, meta.VideoType)
	assert.Equal(t, domain.DeliveryTypeHLS, meta.DeliveryType)
	assert.Contains(t, meta.DecisionReasons, "hls-extension")

	meta, err = r.Resolve(ctx, "https://cdn.example.com/movie.MP4")
	require.NoError(t, err)
	assert.Equal(t, domain.VideoTypeMP4, meta.VideoType)
	assert.Equal(t, domain.DeliveryTypeDirect, meta.DeliveryType)
	assert.Contains(t, meta.DecisionReasons, "file-extension")
}

func TestResolveByContentTypeProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/video":
			w.Header().Set("Content-Type", "video/mp4")
		case "/stream":
			w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		default:
			w.Header().Set("Content-Type", "text/html")
		}
	}))
	defer srv.Close()

	r := NewResolver()
	ctx := context.Background()

	meta, err := r.Resolve(ctx, srv.URL+"/video")
	require.NoError(t, err)
	assert.Equal(t, domain.VideoTypeMP4, meta.VideoType)
	assert.Contains(t, meta.DecisionReasons, "content-type-probe")

	meta, err = r.Resolve(ctx, srv.URL+"/stream")
	require.NoError(t, err)
	assert.Equal(t, domain.VideoTypeHLS, meta.VideoType)

	_, err = r.Resolve(ctx, srv.URL+"/page")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestResolveRejectsRelativeUrl(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(context.Background(), "not-a-url")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestBuildProxyUrl(t *testing.T) {
	p := NewProxyBuilder("https://proxy.example.com/")

	got := p.BuildProxyUrl("https://cdn.example.com/movie.mp4?sig=abc", "https://cdn.example.com")
	assert.Contains(t, got, "https://proxy.example.com/proxy?")
	assert.Contains(t, got, "referer=")
	assert.Contains(t, got, "url=")

	// no referer param when none is given
	got = p.BuildProxyUrl("https://cdn.example.com/movie.mp4", "")
	assert.NotContains(t, got, "referer=")
}
