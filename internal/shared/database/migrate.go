package database

import (
	"gorm.io/gorm"

	"authgate/internal/users"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
	)
}
