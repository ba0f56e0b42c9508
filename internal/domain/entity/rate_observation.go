// Package entity internal/domain/entity/rate_observation.go
package entity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// PartitionLayout formats the monthly partition key
	PartitionLayout = "2006-01"
	// RowTimeLayout formats the timestamp portion of the row key
	RowTimeLayout = "2006-01-02T15:04:05"

	// RateTypeMid is the only rate type the pipeline records
	RateTypeMid = "mid"
)

// Source identifies which provider produced an observation
type Source string

const (
	// SourcePrimary marks rates served by the configured primary provider
	SourcePrimary Source = "primary"
	// SourceFallback marks rates served by the fallback provider
	SourceFallback Source = "fallback"
)

// RateObservation is one exchange-rate reading of a target currency against the base
type RateObservation struct {
	BaseCurrency   string    `json:"base_currency"`
	TargetCurrency string    `json:"target_currency"`
	Rate           float64   `json:"rate"`
	ObservedAt     time.Time `json:"observed_at"`
	Source         Source    `json:"source"`
	RateType       string    `json:"rate_type"`
}

// NewRateObservation builds an observation stamped at observedAt, truncated to whole seconds in UTC
func NewRateObservation(base, target string, rate float64, observedAt time.Time, source Source) RateObservation {
	return RateObservation{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate,
		ObservedAt:     observedAt.UTC().Truncate(time.Second),
		Source:         source,
		RateType:       RateTypeMid,
	}
}

// PartitionKey returns the yyyy-MM partition the observation belongs to
func (o RateObservation) PartitionKey() string {
	return PartitionKey(o.ObservedAt)
}

// RowKey returns the identity of the observation within its partition
func (o RateObservation) RowKey() string {
	return RowKey(o.ObservedAt, o.TargetCurrency)
}

// Validate ensures the observation can be persisted
func (o RateObservation) Validate() error {
	if !IsCurrencyCode(o.BaseCurrency) {
		return fmt.Errorf("invalid base currency %q", o.BaseCurrency)
	}

	if !IsCurrencyCode(o.TargetCurrency) {
		return fmt.Errorf("invalid target currency %q", o.TargetCurrency)
	}

	if o.Rate <= 0 || math.IsNaN(o.Rate) || math.IsInf(o.Rate, 0) {
		return fmt.Errorf("rate must be a positive finite number, got %v", o.Rate)
	}

	if o.ObservedAt.IsZero() {
		return errors.New("observation time must be set")
	}

	if o.Source != SourcePrimary && o.Source != SourceFallback {
		return fmt.Errorf("unknown source %q", o.Source)
	}

	return nil
}

// PartitionKey derives the monthly partition key for t.
// Keys sort lexically in the same order as the months they represent.
func PartitionKey(t time.Time) string {
	return t.UTC().Format(PartitionLayout)
}

// RowKey derives the row key for a reading of target taken at t
func RowKey(t time.Time, target string) string {
	return t.UTC().Format(RowTimeLayout) + "-" + target
}

// IsCurrencyCode reports whether code is three upper-case ASCII letters
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// ParseCurrencyList splits a comma-separated list of codes.
// Blank entries are dropped and codes are upper-cased; an empty input yields nil.
func ParseCurrencyList(list string) []string {
	var codes []string
	for _, part := range strings.Split(list, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
