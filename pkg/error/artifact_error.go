package error

import "net/http"

// ConversionError means the converter did not leave a usable output file.
type ConversionError string

func (err ConversionError) Error() string {
	return string(err)
}

func (err ConversionError) ErrCode() string {
	return "CONVERSION_FAILURE"
}

func (err ConversionError) StatusCode() int {
	return http.StatusInternalServerError
}

// IntegrityError means an artifact's size disagrees with its mode. Serving it
// would desynchronise a client that reads a fixed byte count.
type IntegrityError string

func (err IntegrityError) Error() string {
	return string(err)
}

func (err IntegrityError) ErrCode() string {
	return "INTEGRITY_MISMATCH"
}

func (err IntegrityError) StatusCode() int {
	return http.StatusInternalServerError
}
