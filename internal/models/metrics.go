package models

import "time"

// SystemMetrics is a lightweight aggregate of process metrics for admin
// consumption, cheaper to consume than the full Prometheus exposition.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SeatsReserved            uint64    `json:"seats_reserved"`
	SeatRejections           uint64    `json:"seat_rejections"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
