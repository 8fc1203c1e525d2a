package services

import (
	"log"

	"flowerbelle-pos/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog records who did what. Failures are logged, never fatal -
// an audit hiccup must not fail the business operation that triggered it.
func CreateAuditLog(db *gorm.DB, userID uint, action, tableName string, recordID uint, description, ipAddress string) {
	entry := models.AuditLog{
		UserID:      userID,
		Action:      action,
		TableName:   tableName,
		RecordID:    recordID,
		Description: description,
		IPAddress:   ipAddress,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit log write failed: %v", err)
	}
}
