package handler

import (
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/scheduler"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// RateResponse represents one stored rate observation
type RateResponse struct {
	BaseCurrency   string  `json:"base_currency"`
	TargetCurrency string  `json:"target_currency"`
	Rate           float64 `json:"rate"`
	ObservedAt     string  `json:"observed_at"`
	Source         string  `json:"source"`
	RateType       string  `json:"rate_type"`
	PartitionKey   string  `json:"partition_key"`
	RowKey         string  `json:"row_key"`
}

// RatesResponse represents the response for the partition query endpoint
type RatesResponse struct {
	Partition string         `json:"partition"`
	Currency  string         `json:"currency,omitempty"`
	Count     int            `json:"count"`
	Rates     []RateResponse `json:"rates"`
}

// LatestRatesResponse represents the response for the latest rates endpoint
type LatestRatesResponse struct {
	Count int            `json:"count"`
	Rates []RateResponse `json:"rates"`
}

// HealthResponse represents the response for the health endpoint
type HealthResponse struct {
	Status string                `json:"status"`
	Time   string                `json:"time"`
	Jobs   []scheduler.EntryInfo `json:"jobs,omitempty"`
}

func toRateResponse(obs entity.RateObservation) RateResponse {
	return RateResponse{
		BaseCurrency:   obs.BaseCurrency,
		TargetCurrency: obs.TargetCurrency,
		Rate:           obs.Rate,
		ObservedAt:     obs.ObservedAt.UTC().Format(time.RFC3339),
		Source:         string(obs.Source),
		RateType:       obs.RateType,
		PartitionKey:   obs.PartitionKey(),
		RowKey:         obs.RowKey(),
	}
}

func toRateResponses(observations []entity.RateObservation) []RateResponse {
	out := make([]RateResponse, 0, len(observations))
	for _, obs := range observations {
		out = append(out, toRateResponse(obs))
	}
	return out
}
