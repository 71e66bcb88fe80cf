package repository

import (
	"strings"
	"time"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// IsTransient reports driver failures worth retrying at the data-access
// boundary. Anything else propagates immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"database is locked",
		"database table is locked",
		"connection reset",
		"connection refused",
		"i/o timeout",
		"timeout",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// withRetry runs fn up to retryAttempts times with a doubling backoff.
func withRetry(fn func() error) error {
	delay := retryBaseDelay
	var err error
	for i := 0; i < retryAttempts; i++ {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}
