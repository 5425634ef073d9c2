package enrollment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that expiry is derived lazily from the expiry date,
// so reads observe an expired enrollment before any sweeper has touched the
// stored status.
// Scope: Unit Test
// Expected: An active record with an elapsed expires_at reads as expired and
// inaccessible while its stored status still says active.
func TestAccess_LazyExpiry(t *testing.T) {
	expiry := testNow.Add(time.Hour)
	e := newTestEnrollment(t, &expiry)

	assert.False(t, IsExpiredAt(e, testNow))
	assert.True(t, CanAccessAt(e, testNow))

	later := testNow.Add(2 * time.Hour)
	assert.True(t, IsExpiredAt(e, later))
	assert.False(t, CanAccessAt(e, later))

	// Stored status never moved
	assert.Equal(t, StatusActive, e.Status)
}

func TestAccess_ExpiryBoundaryIsExclusive(t *testing.T) {
	expiry := testNow.Add(time.Hour)
	e := newTestEnrollment(t, &expiry)

	// One instant before the deadline access holds; at the deadline it is gone
	assert.True(t, CanAccessAt(e, expiry.Add(-time.Nanosecond)))
	assert.False(t, CanAccessAt(e, expiry))
}

func TestAccess_NoExpiryNeverExpires(t *testing.T) {
	e := newTestEnrollment(t, nil)

	farFuture := testNow.Add(100 * 365 * 24 * time.Hour)
	assert.False(t, IsExpiredAt(e, farFuture))
	assert.True(t, CanAccessAt(e, farFuture))
}

func TestAccess_CompletedKeepsAccessUntilExpiry(t *testing.T) {
	expiry := testNow.Add(24 * time.Hour)
	e := newTestEnrollment(t, &expiry)
	_, err := e.Complete("cert-1", testNow)
	require.NoError(t, err)

	assert.True(t, CanAccessAt(e, testNow.Add(time.Hour)))
	assert.False(t, CanAccessAt(e, expiry.Add(time.Hour)))
}

func TestAccess_CancelledNeverAccessible(t *testing.T) {
	e := newTestEnrollment(t, nil)
	_, err := e.Cancel("", testNow)
	require.NoError(t, err)

	assert.False(t, CanAccessAt(e, testNow))
	assert.False(t, IsExpiredAt(e, testNow))
}

func TestAccess_StoredExpiredStatusWins(t *testing.T) {
	expiry := testNow.Add(time.Hour)
	e := newTestEnrollment(t, &expiry)
	_, err := e.SweepExpire(testNow.Add(2 * time.Hour))
	require.NoError(t, err)

	// Even if asked about a time before the expiry elapsed, the stored
	// status is authoritative.
	assert.True(t, IsExpiredAt(e, testNow))
}
