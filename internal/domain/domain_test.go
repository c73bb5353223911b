package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := Hackathon{
		RegistrationDeadline: base.Add(24 * time.Hour),
		StartDate:            base.Add(72 * time.Hour),
		EndDate:              base.Add(96 * time.Hour),
	}

	cases := []struct {
		name string
		now  time.Time
		want HackathonStatus
	}{
		{"before deadline", base, StatusRegistrationOpen},
		{"exactly at deadline", h.RegistrationDeadline, StatusRegistrationOpen},
		{"between deadline and start", base.Add(48 * time.Hour), StatusPlanning},
		{"running", base.Add(80 * time.Hour), StatusActive},
		{"after end", base.Add(100 * time.Hour), StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.StatusAt(tc.now))
		})
	}
}

func TestPaymentStatusActive(t *testing.T) {
	assert.True(t, PaymentPending.Active())
	assert.True(t, PaymentCompleted.Active())
	assert.False(t, PaymentFailed.Active())
	assert.False(t, PaymentRefunded.Active())
	assert.False(t, PaymentCancelled.Active())
}

func TestHackathonFull(t *testing.T) {
	h := Hackathon{MaxParticipants: 2, CurrentParticipants: 1}
	assert.False(t, h.Full())
	h.CurrentParticipants = 2
	assert.True(t, h.Full())
}

func TestErrorKinds(t *testing.T) {
	err := E(KindCapacityExceeded, "hackathon is at capacity (%d)", 50)
	assert.Equal(t, KindCapacityExceeded, KindOf(err))
	assert.True(t, IsKind(err, KindCapacityExceeded))
	assert.False(t, IsKind(err, KindNotFound))
	assert.Contains(t, err.Error(), "CAPACITY_EXCEEDED")

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindCapacityExceeded, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapStorage(t *testing.T) {
	require.NoError(t, WrapStorage(nil, "query"))

	assert.Equal(t, KindTimeout, KindOf(WrapStorage(context.DeadlineExceeded, "query")))
	assert.Equal(t, KindNotFound, KindOf(WrapStorage(sql.ErrNoRows, "registration")))

	// Domain errors pass through untouched.
	orig := E(KindAlreadyRegistered, "dup")
	assert.Equal(t, KindAlreadyRegistered, KindOf(WrapStorage(orig, "query")))

	// Unknown errors stay wrapped, not tagged.
	plain := errors.New("connection reset")
	got := WrapStorage(plain, "query")
	assert.Equal(t, Kind(""), KindOf(got))
	assert.ErrorIs(t, got, plain)
}
