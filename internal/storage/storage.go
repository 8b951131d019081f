package storage

import (
	"time"

	"github.com/ryzom/shardstatus/internal/shard"
)

// DataPoint is one observed state of a shard.
type DataPoint struct {
	Timestamp time.Time   `json:"timestamp"`
	State     shard.State `json:"state"`
}

// ServerHistory is the state history of one shard.
type ServerHistory struct {
	Server string      `json:"server"`
	Points []DataPoint `json:"points"`
}

// Observation is a flattened history row used for export.
type Observation struct {
	Timestamp time.Time   `json:"timestamp"`
	Server    string      `json:"server"`
	State     shard.State `json:"state"`
}

// Storage keeps shard state history
type Storage interface {
	// Save records the state of server at timestamp
	Save(server string, state shard.State, timestamp time.Time) error

	// GetHistory returns the history of server within [from, to]
	GetHistory(server string, from, to time.Time) (*ServerHistory, error)

	// GetLatest returns the last count points of server
	GetLatest(server string, count int) (*ServerHistory, error)

	// Observations returns all rows within [from, to]; an empty server means all servers
	Observations(server string, from, to time.Time) ([]Observation, error)

	// Cleanup removes points older than olderThan
	Cleanup(olderThan time.Time) error

	Close() error
}

// SaveReport stores every non-sentinel record of report.
func SaveReport(s Storage, report shard.Report, timestamp time.Time) error {
	for _, rec := range report.Servers() {
		if err := s.Save(rec.Name, rec.State, timestamp); err != nil {
			return err
		}
	}
	return nil
}
