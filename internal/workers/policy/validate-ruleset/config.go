// internal/workers/policy/validate-ruleset/config.go
package validateruleset

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
