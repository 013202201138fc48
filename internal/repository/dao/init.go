package dao

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Tenant{},
		&User{},
		&OwnerSettings{},
		&Raffle{},
		&Ticket{},
		&Result{},
		&Winner{},
		&BlockedEntity{},
		&AuditLog{},
		&PaymentLog{},
	)
}

// lockForUpdate acquires an exclusive row lock. SQLite (used by the test
// suite) locks the whole database per write transaction and rejects the
// FOR UPDATE syntax, so the clause is only added on Postgres.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
