package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordUsage adds one request to a key's daily usage row.
// OnConflict makes this a single-query upsert on both Postgres and SQLite.
func RecordUsage(db *gorm.DB, keyID uint, date string, itemCount, peopleCount int) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_items":   gorm.Expr("total_items + ?", itemCount),
			"total_people":  gorm.Expr("total_people + ?", peopleCount),
		}),
	}).Create(&APIUsage{
		KeyID:        keyID,
		Date:         date,
		RequestCount: 1,
		TotalItems:   itemCount,
		TotalPeople:  peopleCount,
	}).Error
}

// UsageHistory returns the last 30 days of usage for a key, newest first
func UsageHistory(db *gorm.DB, keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}
