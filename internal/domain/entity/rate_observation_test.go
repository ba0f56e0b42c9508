package entity

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateObservationKeys(t *testing.T) {
	observedAt := time.Date(2024, 3, 7, 14, 5, 9, 123456789, time.UTC)
	obs := NewRateObservation("USD", "EUR", 0.92, observedAt, SourcePrimary)

	assert.Equal(t, "2024-03", obs.PartitionKey())
	assert.Equal(t, "2024-03-07T14:05:09-EUR", obs.RowKey())
	assert.Equal(t, RateTypeMid, obs.RateType)
	assert.Equal(t, 0, obs.ObservedAt.Nanosecond())
}

func TestPartitionKeyUsesUTC(t *testing.T) {
	kyiv := time.FixedZone("EET", 2*60*60)
	local := time.Date(2024, 4, 1, 1, 30, 0, 0, kyiv)

	// 01:30 local is still March in UTC
	assert.Equal(t, "2024-03", PartitionKey(local))
}

func TestPartitionKeyOrderMatchesChronology(t *testing.T) {
	start := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)

	var months []time.Time
	var keys []string
	for i := 0; i < 6*12; i++ {
		m := start.AddDate(0, i, 0)
		months = append(months, m)
		keys = append(keys, PartitionKey(m))
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	assert.Equal(t, keys, sorted)

	for i := 1; i < len(months); i++ {
		assert.True(t, months[i-1].Before(months[i]))
		assert.Less(t, keys[i-1], keys[i], "partition %s should sort before %s", keys[i-1], keys[i])
	}
}

func TestRateObservationValidate(t *testing.T) {
	now := time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		obs     RateObservation
		wantErr bool
	}{
		{"valid", NewRateObservation("USD", "EUR", 0.92, now, SourcePrimary), false},
		{"lower-case target", NewRateObservation("USD", "eur", 0.92, now, SourcePrimary), true},
		{"bad base", NewRateObservation("US", "EUR", 0.92, now, SourcePrimary), true},
		{"zero rate", NewRateObservation("USD", "EUR", 0, now, SourcePrimary), true},
		{"negative rate", NewRateObservation("USD", "EUR", -1, now, SourceFallback), true},
		{"nan rate", NewRateObservation("USD", "EUR", math.NaN(), now, SourceFallback), true},
		{"inf rate", NewRateObservation("USD", "EUR", math.Inf(1), now, SourceFallback), true},
		{"missing time", NewRateObservation("USD", "EUR", 1, time.Time{}, SourcePrimary), true},
		{"unknown source", NewRateObservation("USD", "EUR", 1, now, Source("manual")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCurrencyList(t *testing.T) {
	assert.Nil(t, ParseCurrencyList(""))
	assert.Nil(t, ParseCurrencyList(" , "))
	assert.Equal(t, []string{"EUR", "GBP", "UAH"}, ParseCurrencyList("eur, GBP,,uah "))
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	assert.False(t, IsCurrencyCode("usd"))
	assert.False(t, IsCurrencyCode("US1"))
	assert.False(t, IsCurrencyCode("USDT"))
	assert.False(t, IsCurrencyCode(""))
}
