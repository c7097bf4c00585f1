// internal/workers/assessment/attach-report-paths/config.go
package attachreportpaths

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
