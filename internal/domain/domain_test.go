package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusInProgress, StatusNoShow, true},
		{StatusPending, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusNoShow, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []BookingStatus{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierBronze, TierFor(0))
	assert.Equal(t, TierBronze, TierFor(499))
	assert.Equal(t, TierSilver, TierFor(500))
	assert.Equal(t, TierGold, TierFor(1000))
	assert.Equal(t, TierPlatinum, TierFor(2000))
	assert.Equal(t, TierPlatinum, TierFor(1_000_000))
}

func TestTierFor_Monotonic(t *testing.T) {
	prev := TierFor(0).Rank()
	for p := int64(0); p <= 3000; p += 25 {
		r := TierFor(p).Rank()
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
}

func TestTierDiscountAndNext(t *testing.T) {
	assert.Equal(t, 0, TierBronze.DiscountPercent())
	assert.Equal(t, 10, TierSilver.DiscountPercent())
	assert.Equal(t, 20, TierPlatinum.DiscountPercent())
	assert.Equal(t, 0, Tier("diamond").DiscountPercent())

	next, ok := TierSilver.Next()
	require.True(t, ok)
	assert.Equal(t, TierGold, next.Tier)

	_, ok = TierPlatinum.Next()
	assert.False(t, ok)
}

func TestPricingArithmetic(t *testing.T) {
	assert.Equal(t, int64(700), ApplyDiscount(7000, 10))
	assert.Equal(t, int64(0), ApplyDiscount(7000, 0))
	// 1.5p округляется вверх
	assert.Equal(t, int64(2), ApplyDiscount(15, 10))

	assert.Equal(t, int64(6800), TotalPrice(7000, 500, 700))
	assert.Equal(t, int64(0), TotalPrice(100, 0, 500))
}

func TestNormalizeVehicleSize(t *testing.T) {
	assert.Equal(t, VehicleSizeLarge, NormalizeVehicleSize("LARGE"))
	assert.Equal(t, VehicleSizeSmall, NormalizeVehicleSize("b"))
	assert.Equal(t, VehicleSizeMedium, NormalizeVehicleSize("D"))
	assert.Equal(t, VehicleSizeLarge, NormalizeVehicleSize("J"))
	assert.Equal(t, VehicleSizeMedium, NormalizeVehicleSize("tank"))
	assert.Equal(t, VehicleSizeMedium, NormalizeVehicleSize(""))

	_, err := ParseVehicleSize("tank")
	assert.ErrorIs(t, err, ErrUnknownVehicleSize)
}

func TestSlotKey(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	key := NewSlotKey(date, types.MustTimeString("10:00"))
	assert.Equal(t, SlotKey("2025-06-02T10:00"), key)

	gotDate, gotStart, err := key.Parse()
	require.NoError(t, err)
	assert.True(t, gotDate.Equal(date))
	assert.Equal(t, "10:00", gotStart.String())

	assert.ErrorIs(t, SlotKey("2025-06-02 10:00").Validate(), ErrInvalidSlotKey)
	assert.ErrorIs(t, SlotKey("2025-13-02T10:00").Validate(), ErrInvalidSlotKey)
	assert.ErrorIs(t, SlotKey("2025-06-02T25:00").Validate(), ErrInvalidSlotKey)
}

func TestSlotKeyNormalize(t *testing.T) {
	for _, raw := range []SlotKey{"2025-06-02T10:00", "2025-06-02T10:00:00", "2025-06-02T 10:00 "} {
		got, err := raw.Normalize()
		require.NoError(t, err, raw)
		assert.Equal(t, SlotKey("2025-06-02T10:00"), got, raw)
	}

	_, err := SlotKey("2025-06-02").Normalize()
	assert.ErrorIs(t, err, ErrInvalidSlotKey)
}

func TestSlotIsOrderable(t *testing.T) {
	today := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	slot := &Slot{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), MaxBookings: 2, CurrentBookings: 1}
	assert.True(t, slot.IsOrderable(today))

	slot.CurrentBookings = 2
	assert.False(t, slot.IsOrderable(today))

	slot.CurrentBookings = 0
	slot.IsBlocked = true
	assert.False(t, slot.IsOrderable(today))

	past := &Slot{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), MaxBookings: 1}
	assert.False(t, past.IsOrderable(today))
}

func TestPointsForTotal(t *testing.T) {
	assert.Equal(t, int64(68), PointsForTotal(6850, 1))
	assert.Equal(t, int64(136), PointsForTotal(6850, 2))
	assert.Equal(t, int64(0), PointsForTotal(99, 1))
}
