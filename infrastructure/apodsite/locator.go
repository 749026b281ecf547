package apodsite

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Locator finds the picture for a selector on the APOD site.
type Locator struct {
	config  *Config
	fetcher *fetcher
}

// NewLocator creates a locator. A nil httpClient uses a default client; the
// configured timeout applies either way.
func NewLocator(config *Config, httpClient *http.Client) *Locator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Locator{config: config, fetcher: newFetcher(config, httpClient)}
}

// SampleCount is the number of configured samples.
func (l *Locator) SampleCount() int {
	return len(l.config.SampleURLs)
}

// PageURL is the page that holds the picture for a dated or current selector.
func (l *Locator) PageURL(selector domainApod.SourceSelector) string {
	if selector.Kind == domainApod.SelectorByDate {
		return l.config.BaseURL + fmt.Sprintf(l.config.DayPageFormat, selector.Date)
	}
	return l.config.BaseURL + l.config.LatestPage
}

// Locate returns the source image URL. Samples resolve without any fetch;
// other selectors fetch the page and take its first image, falling back to
// the thumbnail of the first recognised video embed.
func (l *Locator) Locate(ctx context.Context, selector domainApod.SourceSelector) (domainApod.Source, error) {
	if selector.IsSample() {
		if selector.Sample < 1 || selector.Sample > len(l.config.SampleURLs) {
			return domainApod.Source{}, pkgError.UpstreamUnavailableError(fmt.Sprintf("no sample %d configured", selector.Sample))
		}
		return domainApod.Source{URL: l.config.SampleURLs[selector.Sample-1]}, nil
	}

	pageURL := l.PageURL(selector)
	page, err := l.fetcher.get(ctx, pageURL)
	if err != nil {
		return domainApod.Source{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domainApod.Source{}, pkgError.MediaNotFoundError(fmt.Sprintf("unparseable page %s: %v", pageURL, err))
	}

	if src, ok := firstImageSource(doc); ok {
		abs, err := resolveReference(pageURL, src)
		if err != nil {
			return domainApod.Source{}, pkgError.MediaNotFoundError(fmt.Sprintf("bad image src %q on %s", src, pageURL))
		}
		return domainApod.Source{URL: abs, PageURL: pageURL}, nil
	}

	if id, ok := firstVideoEmbed(doc, l.config.EmbedPrefixes); ok {
		logrus.Debugf("[APOD] no image on %s, using video %s thumbnail", pageURL, id)
		return domainApod.Source{
			URL:       fmt.Sprintf(l.config.ThumbnailFormat, id),
			PageURL:   pageURL,
			FromVideo: true,
		}, nil
	}

	return domainApod.Source{}, pkgError.MediaNotFoundError(fmt.Sprintf("no image or video on %s", pageURL))
}

// firstImageSource returns the src of the first <img> in document order that
// has one. The day page puts its picture before any other inline image.
func firstImageSource(doc *goquery.Document) (string, bool) {
	var src string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v := strings.TrimSpace(s.AttrOr("src", "")); v != "" {
			src = v
			return false
		}
		return true
	})
	return src, src != ""
}

// firstVideoEmbed returns the video id of the first <iframe> whose src
// contains one of prefixes (case-insensitive). The id is the third
// "/"-separated component of the src path, as in /embed/<id>.
func firstVideoEmbed(doc *goquery.Document, prefixes []string) (string, bool) {
	var embed string
	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := s.AttrOr("src", "")
		lower := strings.ToLower(src)
		for _, p := range prefixes {
			if p != "" && strings.Contains(lower, strings.ToLower(p)) {
				embed = src
				return false
			}
		}
		return true
	})
	if embed == "" {
		return "", false
	}

	u, err := url.Parse(embed)
	if err != nil {
		return "", false
	}
	parts := strings.Split(u.Path, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

func resolveReference(pageURL, src string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Ping fetches the current page without parsing it.
func (l *Locator) Ping(ctx context.Context) error {
	_, err := l.fetcher.get(ctx, l.PageURL(domainApod.Today()))
	return err
}
