// Package links holds the link-ownership model. The analytics engine reads
// it to scope click events to a user's link set and to zero-fill rankings.
package links

import (
	"time"

	"gorm.io/gorm"
)

type Link struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Title     string    `gorm:"not null"`
	URL       string    `gorm:"not null"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ForUser returns the user's full link set in profile order.
func ForUser(db *gorm.DB, userID uint) ([]Link, error) {
	var result []Link
	err := db.Where("user_id = ?", userID).
		Order("position ASC, id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}
