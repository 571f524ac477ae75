package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalItems   int    `gorm:"default:0" json:"total_items"`
	TotalPeople  int    `gorm:"default:0" json:"total_people"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkItem is a project's stored work item
type WorkItem struct {
	ID             uint   `gorm:"primaryKey"`
	ProjectID      string `gorm:"uniqueIndex:idx_project_item;not null"`
	ItemID         string `gorm:"uniqueIndex:idx_project_item;not null"`
	Title          string
	Kind           string `gorm:"not null"`
	Completed      bool
	Priority       string `gorm:"not null"`
	DueDate        *time.Time
	StartDate      *time.Time
	Assignee       string
	EstimatedHours *float64
	UpdatedAt      time.Time
}

// Person is a member of a project's roster. Position keeps roster order.
type Person struct {
	ID        uint   `gorm:"primaryKey"`
	ProjectID string `gorm:"uniqueIndex:idx_project_person;not null"`
	PersonID  string `gorm:"uniqueIndex:idx_project_person;not null"`
	Name      string
	Email     string
	Position  int
}

// ScheduleRun records one preview or apply of a project schedule
type ScheduleRun struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ProjectID      string    `gorm:"index;not null" json:"project_id"`
	Trigger        string    `json:"trigger"`
	Applied        bool      `json:"applied"`
	ScheduledCount int       `json:"scheduled_count"`
	ConflictCount  int       `json:"conflict_count"`
	FairnessScore  float64   `json:"fairness_score"`
	Result         string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Config selects the database backend
type Config struct {
	// DatabaseURL selects postgres when set
	DatabaseURL string
	// DataPath is the sqlite file used otherwise
	DataPath string
}

// InitDB opens the database connection and migrates the schema
func InitDB(cfg Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
			Logger:      logger.Default.LogMode(logger.Warn),
		})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DataPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &WorkItem{}, &Person{}, &ScheduleRun{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
