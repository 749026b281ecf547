package error

import "net/http"

type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// MediaNotFoundError is returned when a day page was fetched but carries
// neither an image nor a recognised video embed.
type MediaNotFoundError string

func (err MediaNotFoundError) Error() string {
	return string(err)
}

func (err MediaNotFoundError) ErrCode() string {
	return "MEDIA_NOT_FOUND"
}

func (err MediaNotFoundError) StatusCode() int {
	return http.StatusBadGateway
}
