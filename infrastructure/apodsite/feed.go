package apodsite

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/feeds"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FeedFetcher reads the caption of the latest picture from the RSS feed.
type FeedFetcher struct {
	config  *Config
	fetcher *fetcher
}

func NewFeedFetcher(config *Config, httpClient *http.Client) *FeedFetcher {
	if config == nil {
		config = DefaultConfig()
	}
	return &FeedFetcher{config: config, fetcher: newFetcher(config, httpClient)}
}

// Refresh fetches the feed and formats its first item for the client.
func (f *FeedFetcher) Refresh(ctx context.Context) (domainApod.DescriptionRecord, error) {
	body, err := f.fetcher.get(ctx, f.config.FeedURL)
	if err != nil {
		return domainApod.DescriptionRecord{}, err
	}

	title, description, err := latestItem(body)
	if err != nil {
		return domainApod.DescriptionRecord{}, err
	}
	return BuildDescription(title, description), nil
}

// BuildDescription cleans raw feed text and lays it out for the client.
func BuildDescription(rawTitle, rawDescription string) domainApod.DescriptionRecord {
	return domainApod.NewDescriptionRecord(CleanText(rawTitle), CleanText(rawDescription))
}

func latestItem(body []byte) (string, string, error) {
	var doc feeds.RssFeedXml
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", "", pkgError.UpstreamUnavailableError(fmt.Sprintf("unparseable feed: %v", err))
	}
	if doc.Channel == nil || len(doc.Channel.Items) == 0 || doc.Channel.Items[0] == nil {
		return "", "", pkgError.UpstreamUnavailableError("feed has no items")
	}
	item := doc.Channel.Items[0]
	return item.Title, item.Description, nil
}

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'",
	"“", "\"", "”", "\"", "„", "\"",
	"–", "-", "—", "-", "…", "...",
)

// CleanText strips markup, collapses whitespace and folds the result to
// printable ASCII the client can display.
func CleanText(s string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		s = doc.Text()
	}
	s = strings.Join(strings.Fields(s), " ")
	return foldASCII(s)
}

func foldASCII(s string) string {
	s = typographic.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Map(func(r rune) rune {
		if r >= 0x20 && r < 0x7F {
			return r
		}
		return '?'
	}, s)
}

// Ping checks that the feed is reachable and has at least one item.
func (f *FeedFetcher) Ping(ctx context.Context) error {
	body, err := f.fetcher.get(ctx, f.config.FeedURL)
	if err != nil {
		return err
	}
	_, _, err = latestItem(body)
	return err
}
