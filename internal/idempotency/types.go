package idempotency

import "time"

// Status values for submission records
const (
	StatusPending = "pending"
	StatusSuccess = "success"
)

// Record is the last known outcome of one logical submission, keyed by its
// idempotency key (the X-Request-ID header). Once Status is success the
// record is frozen: every later read returns the same payload and timestamp.
type Record struct {
	RequestID string    `json:"requestId"`
	Email     string    `json:"email"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Terminal reports whether the record reached a state no further write may change.
func (r Record) Terminal() bool {
	return r.Status == StatusSuccess
}
