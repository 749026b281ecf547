package validations

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sirupsen/logrus"
)

var dateParamPattern = regexp.MustCompile(`^[0-9]{6}$`)

// ResolveOptions carries what request resolution needs beyond the query itself.
type ResolveOptions struct {
	SampleCount int
	Now         time.Time
	Location    *time.Location
}

// ResolveRequest turns raw query parameters into a canonical request.
// Malformed parameters are dropped rather than rejected: sample beats date,
// date beats today, and an unknown mode falls back to the default mode.
func ResolveRequest(params map[string]string, opts ResolveOptions) domainApod.Request {
	mode := domainApod.ResolveMode(params["mode"])

	if sample, ok := validateSample(params, opts.SampleCount); ok {
		return domainApod.Request{
			Key:      domainApod.SampleKey(sample),
			Mode:     mode,
			Selector: domainApod.BySample(sample),
		}
	}

	if date, ok := validateDate(params); ok {
		return domainApod.Request{
			Key:      domainApod.DateKey(date),
			Mode:     mode,
			Selector: domainApod.ByDate(date),
		}
	}

	return domainApod.Request{
		Key:      domainApod.DateKey(TodayStamp(opts.Now, opts.Location)),
		Mode:     mode,
		Selector: domainApod.Today(),
	}
}

// TodayStamp formats now as YYMMDD in loc (local time when loc is nil).
func TodayStamp(now time.Time, loc *time.Location) string {
	if now.IsZero() {
		now = time.Now()
	}
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format("060102")
}

func validateDate(params map[string]string) (string, bool) {
	date, present := params["date"]
	if !present {
		return "", false
	}
	err := validation.Validate(date,
		validation.Required,
		validation.Match(dateParamPattern),
	)
	if err != nil {
		logrus.Debugf("[APOD] ignoring date parameter %q: %v", date, err)
		return "", false
	}
	return date, true
}

func validateSample(params map[string]string, count int) (int, bool) {
	raw, present := params["sample"]
	if !present {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if err := validation.Validate(raw, validation.Required, is.Int); err != nil {
		logrus.Debugf("[APOD] ignoring sample parameter %q: %v", raw, err)
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if err := validation.Validate(n, validation.Required, validation.Min(1), validation.Max(count)); err != nil {
		logrus.Debugf("[APOD] ignoring sample parameter %d: %v", n, err)
		return 0, false
	}
	return n, true
}
