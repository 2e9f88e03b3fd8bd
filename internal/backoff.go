package internal

import "time"

// MaxAttempts is the number of times the sender will transmit a single
// fragment before giving up on it.
const MaxAttempts = 3

// NewRetry returns a Retry ready for its first attempt.
func NewRetry() Retry {
	return Retry{}
}

// Retry drives the sender's fixed linear backoff: up to [MaxAttempts]
// attempts per fragment, sleeping 0, 1, then 2 seconds between them. This
// is deliberately not exponential: a LoRa neighbor link's delay is bounded
// and small, so growth beyond a couple of seconds only wastes airtime.
type Retry struct {
	attempt int
}

// Attempts reports how many attempts have been started so far.
func (r *Retry) Attempts() int { return r.attempt }

// Exhausted reports whether every attempt has been used up.
func (r *Retry) Exhausted() bool { return r.attempt >= MaxAttempts }

// Next sleeps the linear delay owed before the next attempt (0s, then 1s,
// then 2s) and records that an attempt is about to be made. Callers loop
// "for !r.Exhausted() { r.Next(); ... }", checking Exhausted before each
// iteration; Next itself does not check MaxAttempts, since callers already
// must.
func (r *Retry) Next() {
	time.Sleep(time.Duration(r.attempt) * time.Second)
	r.attempt++
}
