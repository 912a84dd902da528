// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "fmt"

// TransientError marks a failure worth retrying: rate limiting, 5xx
// responses, or network trouble. After the retry budget is exhausted the
// chunk is recorded as failed and skipped.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix, such as a
// rejected API key or an invalid request. It is returned immediately.
type PermanentError struct {
	Status int
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("permanent (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("permanent: %v", e.Err)
}
func (e *PermanentError) Unwrap() error { return e.Err }

// SchemaError marks a model response that could not be parsed or validated
// against the expected JSON shape. It is retried like a transient failure;
// the model often produces valid output on a second attempt.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string { return fmt.Sprintf("response schema: %v", e.Err) }
func (e *SchemaError) Unwrap() error { return e.Err }
