package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWasteOffer_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    OfferStatus
		to      OfferStatus
		allowed bool
	}{
		{StatusAvailable, StatusReserved, true},
		{StatusAvailable, StatusTaken, true},
		{StatusAvailable, StatusCompleted, true},
		{StatusAvailable, StatusCancelled, true},
		{StatusReserved, StatusTaken, true},
		{StatusReserved, StatusCompleted, true},
		{StatusReserved, StatusCancelled, true},
		{StatusReserved, StatusAvailable, false},
		{StatusTaken, StatusCompleted, true},
		{StatusTaken, StatusCancelled, true},
		{StatusTaken, StatusReserved, false},
		{StatusTaken, StatusAvailable, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusAvailable, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusAvailable, false},
		// Re-entering the current status is tolerated as a no-op.
		{StatusAvailable, StatusAvailable, true},
		{StatusCompleted, StatusCompleted, true},
	}

	for _, tc := range cases {
		offer := &WasteOffer{Status: tc.from}
		assert.Equal(t, tc.allowed, offer.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseOfferStatus(t *testing.T) {
	status, ok := ParseOfferStatus(" reserved ")
	assert.True(t, ok)
	assert.Equal(t, StatusReserved, status)

	_, ok = ParseOfferStatus("TELEPORTED")
	assert.False(t, ok)
}

func TestOfferStatus_ActiveAndTerminal(t *testing.T) {
	assert.True(t, StatusAvailable.Active())
	assert.True(t, StatusReserved.Active())
	assert.True(t, StatusTaken.Active())
	assert.False(t, StatusCompleted.Active())
	assert.False(t, StatusCancelled.Active())

	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusTaken.Terminal())
}

func TestMaterialType_Valid(t *testing.T) {
	assert.True(t, MaterialPlastic.Valid())
	assert.True(t, MaterialOther.Valid())
	assert.False(t, MaterialType("URANIUM").Valid())
}
