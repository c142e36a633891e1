package feed

import "errors"

// Decode-error taxonomy. Every kind maps to the same halt action today, but
// they stay distinguishable so the failure mode of a misbehaving feed can
// be pinned down in the logs and in tests.
var (
	// ErrMalformedBody indicates the request body was not valid JSON.
	ErrMalformedBody = errors.New("feed: malformed request body")

	// ErrMissingTranslation indicates the translation object was absent.
	ErrMissingTranslation = errors.New("feed: missing translation")

	// ErrMissingRotation indicates the rotation object was absent.
	ErrMissingRotation = errors.New("feed: missing rotation")

	// ErrMissingReset indicates the tracking feed's reset flag was absent.
	ErrMissingReset = errors.New("feed: missing reset flag")
)
