package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Course{},
		&Slot{},
		&Pricing{},
		&Student{},
		&Registration{},
		&WaitlistEntry{},
	)
}
