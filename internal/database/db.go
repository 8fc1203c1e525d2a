package database

import (
	"log"
	"time"

	"flowerbelle-pos/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the MySQL connection and syncs the schema.
// The DSN comes from the environment so the app stays portable.
func Connect(dsn string) {
	if dsn == "" {
		log.Fatal("❌ Error: DB_DSN not found in .env file. Please configure your database.")
	}

	var err error

	// Wait for the DB to be ready (docker-compose starts both at once)
	for i := 0; i < 5; i++ {
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatal("Failed to connect to database after 5 attempts:", err)
	}

	log.Println("✅ Successfully connected to MySQL!")

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}

	log.Println("✅ Database Schema Synced!")
}

// Migrate syncs every model. Exported so tests can run it against
// an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.SalesTransaction{},
		&models.TransactionItem{},
		&models.PaymentTransaction{},
		&models.InventoryMovement{},
		&models.AuditLog{},
		&models.DailySequence{},
		&models.DashboardMetric{},
		&models.ReportExport{},
	)
}
