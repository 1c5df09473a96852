package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCycles(t *testing.T) {
	assert.False(t, ValidCycles(0))
	assert.False(t, ValidCycles(1))
	assert.True(t, ValidCycles(2))
	assert.True(t, ValidCycles(3))
	assert.True(t, ValidCycles(4))
	assert.False(t, ValidCycles(5))
}

func TestPerCycleAmount(t *testing.T) {
	// floor(109900/3) = 36633, remainder absorbed
	assert.Equal(t, int64(36633), PerCycleAmount(109900, 3))

	totals := []int64{69900, 109900, 164900, 159900, 189900}
	for _, total := range totals {
		for cycles := 2; cycles <= 4; cycles++ {
			perCycle := PerCycleAmount(total, cycles)
			assert.LessOrEqual(t, perCycle*int64(cycles), total)
			assert.Less(t, total-perCycle*int64(cycles), int64(cycles))
		}
	}
}

func TestCancelAt_CalendarMonths(t *testing.T) {
	created := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	// cycles=3: exactly 2 calendar months out, not 60 days
	cancelAt := CancelAt(created, 3)
	assert.Equal(t, time.Date(2025, time.May, 15, 10, 30, 0, 0, time.UTC), cancelAt)

	cancelAt = CancelAt(created, 2)
	assert.Equal(t, time.Date(2025, time.April, 15, 10, 30, 0, 0, time.UTC), cancelAt)

	cancelAt = CancelAt(created, 4)
	assert.Equal(t, time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC), cancelAt)
}

func TestCancelAt_MonthEndClamping(t *testing.T) {
	// Jan 31 + 1 month clamps to Feb 28 (non-leap year)
	created := time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)
	cancelAt := CancelAt(created, 2)
	assert.Equal(t, time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC), cancelAt)

	// leap year clamps to Feb 29
	created = time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC)
	cancelAt = CancelAt(created, 2)
	assert.Equal(t, time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC), cancelAt)

	// Dec 31 + 2 months crosses the year boundary and clamps
	created = time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC)
	cancelAt = CancelAt(created, 3)
	assert.Equal(t, time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC), cancelAt)
}

func TestCancelAt_Deterministic(t *testing.T) {
	created := time.Date(2025, time.July, 4, 9, 0, 0, 0, time.UTC)

	first := CancelAt(created, 3)
	second := CancelAt(created, 3)
	assert.Equal(t, first, second)
}

func TestModeLabel(t *testing.T) {
	assert.Equal(t, "1x", ModeLabel(1))
	assert.Equal(t, "3x", ModeLabel(3))
}

func TestMetadata_EncodeParse(t *testing.T) {
	meta := Metadata{
		OfferID:   "classique-20h",
		Mode:      "3x",
		Cycles:    3,
		FirstName: "Jean",
		LastName:  "Dupont",
		Phone:     "+33612345678",
	}

	bag := meta.Encode()
	assert.Equal(t, "3", bag["cycles"])
	assert.Equal(t, "classique-20h", bag["offerId"])
	assert.NotContains(t, bag, "promoCode")

	parsed, err := ParseMetadata(bag)
	require.NoError(t, err)
	assert.Equal(t, meta, parsed)
}

func TestMetadata_OneShotOmitsCycles(t *testing.T) {
	bag := Metadata{OfferID: "classique-10h", Mode: "1x", PromoCode: "WELCOME"}.Encode()

	assert.NotContains(t, bag, "cycles")
	assert.Equal(t, "WELCOME", bag["promoCode"])

	parsed, err := ParseMetadata(bag)
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Cycles)
}

func TestParseMetadata_MalformedCycles(t *testing.T) {
	_, err := ParseMetadata(map[string]string{
		"offerId": "classique-20h",
		"cycles":  "three",
	})
	assert.Error(t, err)
}

func TestParseMetadata_EmptyBag(t *testing.T) {
	parsed, err := ParseMetadata(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Cycles)
	assert.Empty(t, parsed.OfferID)
}
