package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-pg/models"
)

// SeedRooms creates rooms 1..count with the given capacity. Existing rooms
// are left untouched. Returns how many rows were inserted.
func SeedRooms(db *gorm.DB, count, capacity int) (int64, error) {
	if count < 1 || capacity < 1 {
		return 0, errors.New("count and capacity must be positive")
	}
	rooms := make([]models.Room, 0, count)
	for i := 1; i <= count; i++ {
		rooms = append(rooms, models.Room{ID: uint(i), Type: "shared", MaxTenants: capacity})
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rooms)
	if res.Error != nil {
		return 0, fmt.Errorf("seed rooms: %w", res.Error)
	}
	return res.RowsAffected, nil
}
