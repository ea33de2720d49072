package pipeline

import "errors"

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ stage string }

func (e tooBusyError) Error() string { return "too busy: " + e.stage }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// invalidRequestError marks a request the pipeline cannot run as given.
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return "invalid run request: " + e.msg }

// IsInvalidRequest reports whether err was caused by a bad RunRequest.
func IsInvalidRequest(err error) bool {
	var ir invalidRequestError
	return errors.As(err, &ir)
}
