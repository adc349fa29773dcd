package music

import "errors"

// Failure classes shared by search and audio resolution. Callers wrap them
// with fmt.Errorf("...: %w") and match with errors.Is.
var (
	// ErrValidation marks a malformed query or video ID, rejected before any
	// network or subprocess call.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration marks a missing API credential.
	ErrConfiguration = errors.New("missing configuration")

	// ErrUpstreamUnavailable marks a search or details call that failed with
	// every configured credential.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrExtraction marks a yt-dlp run that exited non-zero or produced no audio.
	ErrExtraction = errors.New("audio extraction failed")
)
