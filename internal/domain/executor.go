package domain

import "time"

// ExecutorStatus represents the state of an executor within a run
type ExecutorStatus string

const (
	ExecutorStatusRegistered ExecutorStatus = "REGISTERED"
	ExecutorStatusTerminated ExecutorStatus = "TERMINATED"
)

// ExecutorInfo represents information about a connected executor
type ExecutorInfo struct {
	ID           string         `json:"id"`
	Rank         Rank           `json:"rank"`
	RunID        string         `json:"run_id,omitempty"`
	IpAddress    string         `json:"ip_address"`
	Status       ExecutorStatus `json:"status"`
	RegisteredAt time.Time      `json:"registered_at"`
	TerminatedAt *time.Time     `json:"terminated_at,omitempty"`
}
