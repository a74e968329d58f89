package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&TicketType{},
		&AddOn{},
		&EventAddOn{},
		&PurchaseIntent{},
		&Ticket{},
	)
}
