package apodsite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteServer(t *testing.T, pages map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(baseURL string) *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL + "/apod/"
	cfg.FeedURL = baseURL + "/apod.rss"
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestLocator_DatedPageResolvesRelativeImage(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/apod/ap240101.html": `<html><body><a href="x"><img src=""></a>` +
			`<img src="image/2401/nebula_1024.jpg"><img src="other.jpg"></body></html>`,
	})
	loc := NewLocator(testConfig(srv.URL), srv.Client())

	src, err := loc.Locate(context.Background(), domainApod.ByDate("240101"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/apod/image/2401/nebula_1024.jpg", src.URL)
	assert.Equal(t, srv.URL+"/apod/ap240101.html", src.PageURL)
	assert.False(t, src.FromVideo)
}

func TestLocator_TodayUsesLatestPage(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/apod/astropix.html": `<img src="https://cdn.example.org/today.jpg">`,
	})
	loc := NewLocator(testConfig(srv.URL), srv.Client())

	src, err := loc.Locate(context.Background(), domainApod.Today())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/today.jpg", src.URL)
}

func TestLocator_VideoThumbnailFallback(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/apod/ap240102.html": `<iframe src="https://player.example.com/v/1"></iframe>` +
			`<iframe width="960" src="HTTPS://WWW.YOUTUBE.COM/embed/abc123?rel=0"></iframe>`,
	})
	loc := NewLocator(testConfig(srv.URL), srv.Client())

	src, err := loc.Locate(context.Background(), domainApod.ByDate("240102"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.youtube.com/vi/abc123/hqdefault.jpg", src.URL)
	assert.True(t, src.FromVideo)
}

func TestLocator_NoMediaIsNotFound(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/apod/ap240103.html": `<p>Nothing to see here.</p>`,
	})
	loc := NewLocator(testConfig(srv.URL), srv.Client())

	_, err := loc.Locate(context.Background(), domainApod.ByDate("240103"))
	require.Error(t, err)
	var notFound pkgError.MediaNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLocator_MissingPageIsUpstreamUnavailable(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{})
	loc := NewLocator(testConfig(srv.URL), srv.Client())

	_, err := loc.Locate(context.Background(), domainApod.ByDate("991231"))
	require.Error(t, err)
	var upstream pkgError.UpstreamUnavailableError
	assert.ErrorAs(t, err, &upstream)
}

func TestLocator_SampleNeedsNoFetch(t *testing.T) {
	srv, hits := newSiteServer(t, map[string]string{})
	loc := NewLocator(testConfig(srv.URL), srv.Client())

	src, err := loc.Locate(context.Background(), domainApod.BySample(2))
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleBaseURL+"ngc2818.jpg", src.URL)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
	assert.Equal(t, len(DefaultSampleFiles), loc.SampleCount())
}

func TestLocator_SlowPageTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 30 * time.Millisecond
	loc := NewLocator(cfg, srv.Client())

	_, err := loc.Locate(context.Background(), domainApod.Today())
	require.Error(t, err)
	var timeout pkgError.TimeoutError
	assert.ErrorAs(t, err, &timeout)
}

func TestLocator_OversizedPageIsUpstreamUnavailable(t *testing.T) {
	page := `<img src="image/big.jpg">`
	srv, _ := newSiteServer(t, map[string]string{
		"/apod/ap240104.html": page + strings.Repeat(" ", 64),
		"/apod/ap240105.html": page,
	})
	cfg := testConfig(srv.URL)
	cfg.MaxBodyBytes = int64(len(page))
	loc := NewLocator(cfg, srv.Client())

	_, err := loc.Locate(context.Background(), domainApod.ByDate("240104"))
	require.Error(t, err)
	var upstream pkgError.UpstreamUnavailableError
	assert.ErrorAs(t, err, &upstream)
	assert.Contains(t, err.Error(), "exceeds")

	src, err := loc.Locate(context.Background(), domainApod.ByDate("240105"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/apod/image/big.jpg", src.URL)
}
