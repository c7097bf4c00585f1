// internal/workers/assessment/record-reviewer-signoff/config.go
package recordreviewersignoff

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
