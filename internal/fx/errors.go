package fx

import (
	"errors"
	"fmt"
)

var (
	// ErrRateUnavailable is returned when no source could provide a rate.
	ErrRateUnavailable = errors.New("exchange rate unavailable, please try again")
	// ErrMalformedResponse is returned when a source answers with an unusable body.
	ErrMalformedResponse = errors.New("malformed exchange rate response")
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}
