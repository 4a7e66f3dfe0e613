package model

import "time"

// Task is a resource-bounded unit of work to place on a VM.
// Immutable once submitted.
type Task struct {
	ID       string        `json:"id"`
	Demand   Resources     `json:"demand"`
	Deadline time.Time     `json:"deadline"`
	Duration time.Duration `json:"duration,omitempty"`
}
