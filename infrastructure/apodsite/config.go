// Package apodsite talks to the APOD web site: it finds the picture of a
// given day and reads the caption from the RSS feed.
package apodsite

import (
	"time"
)

// Config holds upstream endpoints and limits.
type Config struct {
	// BaseURL is the directory holding astropix.html and the apYYMMDD.html pages.
	BaseURL string
	// LatestPage is the page for the current picture, relative to BaseURL.
	LatestPage string
	// DayPageFormat builds a day page name from a YYMMDD stamp.
	DayPageFormat string
	// FeedURL is the RSS feed carrying the latest title and description.
	FeedURL string
	// EmbedPrefixes are iframe src prefixes recognised as video embeds.
	EmbedPrefixes []string
	// ThumbnailFormat builds a thumbnail URL from a video id.
	ThumbnailFormat string
	// SampleURLs are the built-in sample images, addressed 1..N.
	SampleURLs []string
	// Timeout bounds every fetch.
	Timeout time.Duration
	// MaxBodyBytes caps page and feed bodies.
	MaxBodyBytes int64
	UserAgent    string
}

// DefaultSampleFiles are the sample images shipped next to the server.
var DefaultSampleFiles = []string{
	"alt_reality.png",
	"ngc2818.jpg",
	"Parrot.jpg",
	"SPACE.JPG",
	"rainbow.png",
}

const DefaultSampleBaseURL = "http://billsgames.com/fujinet/apod/samples/"

// DefaultConfig returns the production APOD endpoints.
func DefaultConfig() *Config {
	samples := make([]string, 0, len(DefaultSampleFiles))
	for _, f := range DefaultSampleFiles {
		samples = append(samples, DefaultSampleBaseURL+f)
	}
	return &Config{
		BaseURL:         "https://apod.nasa.gov/apod/",
		LatestPage:      "astropix.html",
		DayPageFormat:   "ap%s.html",
		FeedURL:         "https://apod.nasa.gov/apod.rss",
		EmbedPrefixes:   []string{"https://www.youtube.com/embed/"},
		ThumbnailFormat: "https://img.youtube.com/vi/%s/hqdefault.jpg",
		SampleURLs:      samples,
		Timeout:         15 * time.Second,
		MaxBodyBytes:    4 << 20,
		UserAgent:       "az-apod/1.0 (+FujiNet)",
	}
}
