package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatus(t *testing.T) {
	t.Run("valid statuses", func(t *testing.T) {
		for _, s := range []RequestStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted, StatusExpired} {
			assert.True(t, s.Valid(), string(s))
		}
	})

	t.Run("unknown and lowercase values are invalid", func(t *testing.T) {
		assert.False(t, RequestStatus("").Valid())
		assert.False(t, RequestStatus("pending").Valid())
		assert.False(t, RequestStatus("OPEN").Valid())
	})

	t.Run("only pending and approved requests hold dates", func(t *testing.T) {
		assert.True(t, StatusPending.Live())
		assert.True(t, StatusApproved.Live())
		assert.False(t, StatusRejected.Live())
		assert.False(t, StatusCancelled.Live())
		assert.False(t, StatusCompleted.Live())
		assert.False(t, StatusExpired.Live())
	})
}

func TestNotificationKind(t *testing.T) {
	for _, k := range []NotificationKind{KindBookingRequest, KindBookingAccepted, KindBookingRejected} {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, NotificationKind("").Valid())
	assert.False(t, NotificationKind("BOOKING_REQUEST").Valid())
}
