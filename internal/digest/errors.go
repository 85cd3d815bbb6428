package digest

import "errors"

// Sentinel errors classifying pipeline failures. Callers match with
// errors.Is to decide between aborting the run, retiring a candidate, or
// degrading to a fallback delivery.
var (
	// ErrSourceUnavailable means the backing link document could not be
	// read. Fatal for the run.
	ErrSourceUnavailable = errors.New("link source unavailable")

	// ErrExtractionFailed means fetching or parsing a candidate failed, or
	// the extracted text fell below the minimum viable length. The
	// candidate is retired for the run and another is attempted.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrSummarizationFailed means the LLM call failed. The run degrades
	// to a fallback body and continues.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrDeliveryFailed means the notifier could not hand the message to
	// its transport. Fatal for the run; the candidate is not marked
	// delivered.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrNoViableCandidate means the attempt bound was exhausted without a
	// successful extraction. No email is sent; failure-marked candidates
	// stay recorded so the next run skips them.
	ErrNoViableCandidate = errors.New("no viable candidate within attempt bound")
)
