package pipeline

import "time"

const (
	// LogFieldRunID correlates every log line of one run.
	LogFieldRunID = "run_id"

	defaultSourceConcurrency = 1
	poolReleaseTimeout       = 5 * time.Second

	runStatusOK        = "ok"
	runStatusCancelled = "cancelled"

	listingStatusOK     = "ok"
	listingStatusFailed = "failed"
)
