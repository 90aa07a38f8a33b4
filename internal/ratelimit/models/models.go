package models

import "time"

// Result reports the outcome of a single rate-limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration

	// Skipped is true when a skip predicate exempted the request; the
	// counter was not touched.
	Skipped bool

	// SkippedBy names the matching predicate when Skipped is true.
	SkippedBy string
}

// ThrottledResponse is the JSON body returned with HTTP 429.
type ThrottledResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}
