package service

import (
	"math"
	"strings"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
)

// Normalize converts a raw provider mapping into a uniform currency -> rate mapping.
// Codes are trimmed and upper-cased; entries with a malformed code or a rate that is
// not a positive finite number are dropped. An empty input yields an empty mapping.
func Normalize(raw map[string]float64) map[string]float64 {
	rates := make(map[string]float64, len(raw))

	for code, rate := range raw {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !entity.IsCurrencyCode(code) {
			continue
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			continue
		}
		rates[code] = rate
	}

	return rates
}

// SelectTargets restricts rates to the requested target codes.
// An empty target list keeps every rate.
func SelectTargets(rates map[string]float64, targets []string) map[string]float64 {
	if len(targets) == 0 {
		return rates
	}

	selected := make(map[string]float64, len(targets))
	for _, code := range targets {
		if rate, ok := rates[code]; ok {
			selected[code] = rate
		}
	}
	return selected
}
