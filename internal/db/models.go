package db

import (
	"time"
)

// Source mirrors the registered news sources so trust tiers and
// runtime health survive restarts.
type Source struct {
	SourceID     string     `gorm:"column:source_id;type:text;primaryKey"`
	Name         string     `gorm:"column:name;type:text;not null;default:''"`
	Tier         string     `gorm:"column:tier;type:text;not null"`
	BaseTrust    float64    `gorm:"column:base_trust;type:double precision;not null;default:0"`
	Active       bool       `gorm:"column:active;not null;default:true"`
	FailureCount int        `gorm:"column:failure_count;type:integer;not null;default:0"`
	LastSuccess  *time.Time `gorm:"column:last_success;type:timestamptz"`
	LastAttempt  *time.Time `gorm:"column:last_attempt;type:timestamptz"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Source) TableName() string { return "newsrank.sources" }

// RankingRun is the audit record of one ranking invocation.
type RankingRun struct {
	RunID           int64     `gorm:"column:run_id;primaryKey;autoIncrement" json:"run_id"`
	Preset          string    `gorm:"column:preset;type:text;not null" json:"preset"`
	InputCount      int       `gorm:"column:input_count;type:integer;not null" json:"input_count"`
	AfterURLCount   int       `gorm:"column:after_url_count;type:integer;not null" json:"after_url_count"`
	AfterTitleCount int       `gorm:"column:after_title_count;type:integer;not null" json:"after_title_count"`
	ClusterCount    int       `gorm:"column:cluster_count;type:integer;not null" json:"cluster_count"`
	ExcludedCount   int       `gorm:"column:excluded_count;type:integer;not null" json:"excluded_count"`
	ReturnedCount   int       `gorm:"column:returned_count;type:integer;not null" json:"returned_count"`
	ElapsedMillis   int64     `gorm:"column:elapsed_millis;type:bigint;not null" json:"elapsed_millis"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()" json:"created_at"`
}

func (RankingRun) TableName() string { return "newsrank.ranking_runs" }

func autoMigrateModels() []any {
	return []any{
		&Source{},
		&RankingRun{},
	}
}
