package models

import (
	"bitbucket.org/mmdatafocus/exhibition_backend/config"
)

// MigrateTable keeps the schema in sync on boot. Column drops are manual;
// AutoMigrate only adds.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&ProductCategory{},
		&Product{},
		&Invoice{},
		&InvoiceItem{},
		&Notification{},
	)
}
