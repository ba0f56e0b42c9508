package service

import "sort"

// sortedCodes returns the currency codes of rates in ascending order
func sortedCodes(rates map[string]float64) []string {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
