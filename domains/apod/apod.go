package apod

import (
	"context"
	"fmt"
	"strconv"
)

// SelectorKind tells the locator where the source image comes from.
type SelectorKind string

const (
	SelectorToday    SelectorKind = "today"
	SelectorByDate   SelectorKind = "date"
	SelectorBySample SelectorKind = "sample"
)

// SourceSelector is the single resolved source for a request.
type SourceSelector struct {
	Kind   SelectorKind `json:"kind"`
	Date   string       `json:"date,omitempty"`   // YYMMDD, set for SelectorByDate
	Sample int          `json:"sample,omitempty"` // 1-based, set for SelectorBySample
}

func Today() SourceSelector {
	return SourceSelector{Kind: SelectorToday}
}

func ByDate(yymmdd string) SourceSelector {
	return SourceSelector{Kind: SelectorByDate, Date: yymmdd}
}

func BySample(index int) SourceSelector {
	return SourceSelector{Kind: SelectorBySample, Sample: index}
}

func (s SourceSelector) IsSample() bool {
	return s.Kind == SelectorBySample
}

// CacheKey is the basename shared by every mode of one day or sample.
type CacheKey string

func DateKey(yymmdd string) CacheKey {
	return CacheKey("AP" + yymmdd)
}

func SampleKey(index int) CacheKey {
	return CacheKey("SAMPLE" + strconv.Itoa(index))
}

// ArtifactName is the file name of the artifact for this key and mode.
func (k CacheKey) ArtifactName(mode ModeSpec) string {
	return fmt.Sprintf("%s.%s", k, mode.Suffix)
}

// Request is the canonical form of a client query.
type Request struct {
	Key      CacheKey       `json:"key"`
	Mode     ModeSpec       `json:"mode"`
	Selector SourceSelector `json:"selector"`
}

func (r Request) ArtifactName() string {
	return r.Key.ArtifactName(r.Mode)
}

// Source is what the locator found for a selector.
type Source struct {
	URL     string `json:"url"`
	PageURL string `json:"page_url,omitempty"`
	// FromVideo is set when the URL is a video thumbnail rather than the page image.
	FromVideo bool `json:"from_video"`
}

// Artifact is a materialised raster file in the cache.
type Artifact struct {
	Name string
	Path string
	Size int64
}

// Payload is the complete binary response for one request.
type Payload struct {
	Filename string
	Body     []byte
	CacheHit bool
}

// Length is the value of the Content-Length header for this payload.
func (p Payload) Length() int {
	return len(p.Body)
}

// Locator finds the source image URL for a selector.
type Locator interface {
	Locate(ctx context.Context, selector SourceSelector) (Source, error)
}

// DescriptionFetcher retrieves and formats the latest caption.
type DescriptionFetcher interface {
	Refresh(ctx context.Context) (DescriptionRecord, error)
}

// Converter is the external raster converter. It either writes a file of the
// mode's exact size at outputPath or leaves nothing usable behind.
type Converter interface {
	Convert(ctx context.Context, sourceURL, modeToken, outputPath string) error
}

// FillLocker serialises fills of one artifact across processes.
type FillLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type IApodUsecase interface {
	Fetch(ctx context.Context, params map[string]string) (Payload, error)
}
