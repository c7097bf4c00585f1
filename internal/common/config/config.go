package config

import (
	"fmt"
	"time"

	"migration-assessment/internal/assessment/risk"
)

type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Engine   EngineConfig            `mapstructure:"engine"`
	Policy   PolicyConfig            `mapstructure:"policy"`
	Audit    AuditConfig             `mapstructure:"audit"`
	Server   ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ElasticsearchConfig is optional. Without addresses audit records are not
// indexed.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

// RedisConfig is optional. Without an address rulesets are read from the
// database on every job.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type EngineConfig struct {
	// Timezone sets the calendar day an evaluation instant falls on.
	Timezone string     `mapstructure:"timezone"`
	Risk     RiskConfig `mapstructure:"risk"`
}

// Location resolves Timezone, defaulting to UTC.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}

// RiskConfig overrides risk analyzer thresholds. Zero values and empty
// lists keep the analyzer defaults.
type RiskConfig struct {
	PointsMarginThreshold      int      `mapstructure:"points_margin_threshold"`
	PointsTrendThreshold       int      `mapstructure:"points_trend_threshold"`
	PointsStrongThreshold      int      `mapstructure:"points_strong_threshold"`
	AgeUpperLimit              int      `mapstructure:"age_upper_limit"`
	AgeWarningYears            int      `mapstructure:"age_warning_years"`
	SkillsExpiryWindowMonths   int      `mapstructure:"skills_expiry_window_months"`
	EmploymentGapMonths        int      `mapstructure:"employment_gap_months"`
	EnglishTestMaxAgeMonths    int      `mapstructure:"english_test_max_age_months"`
	EnglishBorderlineMargin    float64  `mapstructure:"english_borderline_margin"`
	VisaExpiryWindowMonths     int      `mapstructure:"visa_expiry_window_months"`
	VolatileOccupations        []string `mapstructure:"volatile_occupations"`
	VolatileStates             []string `mapstructure:"volatile_states"`
	CeilingOccupations         []string `mapstructure:"ceiling_occupations"`
	StatusChangeSubclasses     []string `mapstructure:"status_change_subclasses"`
	DefensibilityMinIndicators int      `mapstructure:"defensibility_min_indicators"`
}

func (r RiskConfig) ToPolicy() risk.Policy {
	p := risk.DefaultPolicy()
	overrideInt(&p.PointsMarginThreshold, r.PointsMarginThreshold)
	overrideInt(&p.PointsTrendThreshold, r.PointsTrendThreshold)
	overrideInt(&p.PointsStrongThreshold, r.PointsStrongThreshold)
	overrideInt(&p.AgeUpperLimit, r.AgeUpperLimit)
	overrideInt(&p.AgeWarningYears, r.AgeWarningYears)
	overrideInt(&p.SkillsExpiryWindowMonths, r.SkillsExpiryWindowMonths)
	overrideInt(&p.EmploymentGapMonths, r.EmploymentGapMonths)
	overrideInt(&p.EnglishTestMaxAgeMonths, r.EnglishTestMaxAgeMonths)
	overrideInt(&p.VisaExpiryWindowMonths, r.VisaExpiryWindowMonths)
	overrideInt(&p.DefensibilityMinIndicators, r.DefensibilityMinIndicators)
	if r.EnglishBorderlineMargin > 0 {
		p.EnglishBorderlineMargin = r.EnglishBorderlineMargin
	}
	overrideList(&p.VolatileOccupations, r.VolatileOccupations)
	overrideList(&p.VolatileStates, r.VolatileStates)
	overrideList(&p.CeilingOccupations, r.CeilingOccupations)
	overrideList(&p.StatusChangeSubclasses, r.StatusChangeSubclasses)
	return p
}

func overrideInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func overrideList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}

type PolicyConfig struct {
	// SnapshotID is used when a job does not name a snapshot.
	SnapshotID string `mapstructure:"snapshot_id"`
	// RulesetDir holds snapshot files served alongside the database.
	RulesetDir string `mapstructure:"ruleset_dir"`
	CacheTTL   int    `mapstructure:"cache_ttl"` // milliseconds
}

type AuditConfig struct {
	Index string `mapstructure:"index"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}
