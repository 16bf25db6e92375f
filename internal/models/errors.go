package models

import "errors"

// Pipeline error taxonomy. Only ErrInvalidURL and ErrMissingCredential reach
// the user; the other two are absorbed by the fallbacks and kept for logging.
var (
	ErrInvalidURL        = errors.New("invalid YouTube URL")
	ErrMissingCredential = errors.New("missing credential")
	ErrUpstreamFailure   = errors.New("upstream failure")
	ErrMalformedResponse = errors.New("malformed response")
)
