package models

// RatelimitConfig holds the rate limit configuration stored in the database,
// in ulule/limiter formatted notation (e.g. "5-S", "100-M").
type RatelimitConfig struct {
	Rate string `json:"rate"`
}
