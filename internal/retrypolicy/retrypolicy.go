// Package retrypolicy classifies HTTP/text failures as retryable and
// computes the transport provider's exponential backoff delay.
package retrypolicy

import (
	"regexp"
	"time"
)

// MaxRetries is the maximum number of retry attempts after the initial
// request attempt.
const MaxRetries = 3

// BaseDelay is the delay before the first retry.
const BaseDelay = 1000 * time.Millisecond

var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// retryableText matches transient-failure phrasing, case-insensitively, with
// liberal separator handling between words (space, hyphen, underscore).
var retryableText = regexp.MustCompile(`(?i)rate.?limit|overloaded|service.?unavailable|upstream.?connect|connection.?refused`)

// IsRetryable reports whether an HTTP status or error text indicates a
// transient failure worth retrying.
func IsRetryable(status int, errorText string) bool {
	if retryableStatuses[status] {
		return true
	}
	return retryableText.MatchString(errorText)
}

// Delay computes the exponential backoff delay for a retry attempt:
// 1000ms * 2^min(attempt, 30).
func Delay(attempt int) time.Duration {
	exponent := attempt
	if exponent > 30 {
		exponent = 30
	}
	if exponent < 0 {
		exponent = 0
	}
	multiplier := int64(1) << uint(exponent)
	return BaseDelay * time.Duration(multiplier)
}
