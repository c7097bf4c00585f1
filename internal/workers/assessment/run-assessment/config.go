// internal/workers/assessment/run-assessment/config.go
package runassessment

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultSnapshotID is used when the job names no policy snapshot.
	DefaultSnapshotID string
	// Location decides which calendar day the evaluation instant falls on.
	Location *time.Location
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		Location: time.UTC,
	}
}
