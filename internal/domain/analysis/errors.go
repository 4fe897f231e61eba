package analysis

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrInvalidInput is returned when one of the form fields fails validation.
	ErrInvalidInput = goerr.New("invalid analysis request")

	// ErrInProgress is returned when the user already has an analysis in flight.
	ErrInProgress = goerr.New("analysis already in progress")

	// ErrUpstreamStatus indicates the webhook answered with a non-2xx status.
	ErrUpstreamStatus = goerr.New("analysis service returned an error status")

	// ErrMalformedResponse indicates the webhook answer is not JSON or not shaped like a report.
	ErrMalformedResponse = goerr.New("malformed analysis response")

	// ErrTransport covers network failures and timeouts talking to the webhook.
	ErrTransport = goerr.New("analysis service unreachable")

	// ErrUnauthenticated is returned when no user could be resolved for the request.
	ErrUnauthenticated = goerr.New("unauthenticated")
)

// FailureReason turns an analysis error into the message shown to the user
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamStatus):
		return "The analysis service returned an error. Please try again later."
	case errors.Is(err, ErrMalformedResponse):
		return "The analysis service sent a response we could not read."
	case errors.Is(err, ErrTransport):
		return "The analysis service could not be reached or took too long to answer."
	case errors.Is(err, ErrInvalidInput):
		return "Some fields are invalid."
	default:
		return "Something went wrong while analysing the product."
	}
}
