package enrollment

import "time"

// Access evaluation is a pure derivation over a record and a point in time.
// Expiry is a computed fact: a record whose expires-at has passed is treated
// as expired even while its stored status still says active, so reads never
// grant access based on a stale status waiting for the sweeper.

// IsExpiredAt reports whether the enrollment is logically expired at the
// given instant, either by stored status or by an elapsed expiry date.
func IsExpiredAt(e *Enrollment, now time.Time) bool {
	if e.Status == StatusExpired {
		return true
	}
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// CanAccessAt reports whether the learner may access course content at the
// given instant. Completed enrollments retain access until they expire.
func CanAccessAt(e *Enrollment, now time.Time) bool {
	if e.Status != StatusActive && e.Status != StatusCompleted {
		return false
	}
	return !IsExpiredAt(e, now)
}
