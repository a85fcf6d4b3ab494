package gemini

import "errors"

// ErrMissingCredential is returned when no API key is available at startup.
var ErrMissingCredential = errors.New("gemini: API key required (set GEMINI_API_KEY)")

// ErrConnectionExhausted is returned when the validation call failed on
// every attempt of the retry budget. The last underlying error is wrapped
// into the message.
var ErrConnectionExhausted = errors.New("gemini: connection validation exhausted")

// ErrNotReady is returned by generation operations invoked before
// Initialize has completed successfully.
var ErrNotReady = errors.New("gemini: client not initialized")

// ErrUpstream wraps any transport or API failure on a generation call.
var ErrUpstream = errors.New("gemini: upstream request failed")
