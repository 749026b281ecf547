package apodsite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	pkgError "github.com/AzielCF/az-apod/pkg/error"
)

// fetcher performs bounded GET requests and maps failures to error kinds.
type fetcher struct {
	httpClient *http.Client
	config     *Config
}

func newFetcher(config *Config, httpClient *http.Client) *fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &fetcher{httpClient: httpClient, config: config}
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgError.UpstreamUnavailableError(fmt.Sprintf("invalid upstream url %q: %v", url, err))
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, classifyFetchError(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgError.UpstreamUnavailableError(fmt.Sprintf("GET %s: status %d", url, resp.StatusCode))
	}

	var body io.Reader = resp.Body
	if f.config.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.config.MaxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, classifyFetchError(ctx, url, err)
	}
	if f.config.MaxBodyBytes > 0 && int64(len(data)) > f.config.MaxBodyBytes {
		return nil, pkgError.UpstreamUnavailableError(fmt.Sprintf("GET %s: body exceeds %d bytes", url, f.config.MaxBodyBytes))
	}
	if len(data) == 0 {
		return nil, pkgError.UpstreamUnavailableError(fmt.Sprintf("GET %s: empty body", url))
	}
	return data, nil
}

func classifyFetchError(ctx context.Context, url string, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return pkgError.TimeoutError(fmt.Sprintf("GET %s: timed out", url))
	}
	return pkgError.UpstreamUnavailableError(fmt.Sprintf("GET %s: %v", url, err))
}
