package error

import "net/http"

// UpstreamUnavailableError covers failed page, feed and sample fetches, and
// fill lock waits that ran out of time.
type UpstreamUnavailableError string

func (err UpstreamUnavailableError) Error() string {
	return string(err)
}

func (err UpstreamUnavailableError) ErrCode() string {
	return "UPSTREAM_UNAVAILABLE"
}

func (err UpstreamUnavailableError) StatusCode() int {
	return http.StatusBadGateway
}

// TimeoutError is returned when a remote fetch or the converter exceeds its deadline.
type TimeoutError string

func (err TimeoutError) Error() string {
	return string(err)
}

func (err TimeoutError) ErrCode() string {
	return "UPSTREAM_TIMEOUT"
}

func (err TimeoutError) StatusCode() int {
	return http.StatusGatewayTimeout
}
