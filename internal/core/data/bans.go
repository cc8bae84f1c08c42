package data

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Ban blocks a player from connecting, matched by name or remote IP.
type Ban struct {
	gorm.Model

	Name   string `gorm:"index"`
	IPAddr string `gorm:"index"`
	Reason string
}

// Violation is one recorded anti-cheat kick.
type Violation struct {
	gorm.Model

	Name   string `gorm:"index"`
	IPAddr string
	Field  string
	Reason string
}

// FindBan returns the active ban matching either the player name or the
// remote IP, or nil if the player is not banned.
func FindBan(db *gorm.DB, name, ipAddr string) (*Ban, error) {
	var ban Ban
	err := db.Where("name = ? OR ip_addr = ?", name, ipAddr).First(&ban).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error finding ban: %w", err)
	}
	return &ban, nil
}

// CreateBan inserts a new ban row.
func CreateBan(db *gorm.DB, ban *Ban) error {
	if err := db.Create(ban).Error; err != nil {
		return fmt.Errorf("error creating ban: %w", err)
	}
	return nil
}

// RecordViolation appends a row to the anti-cheat violation log.
func RecordViolation(db *gorm.DB, violation *Violation) error {
	if err := db.Create(violation).Error; err != nil {
		return fmt.Errorf("error recording violation: %w", err)
	}
	return nil
}

// CountViolations returns the number of recorded violations for a player name.
func CountViolations(db *gorm.DB, name string) (int64, error) {
	var count int64
	if err := db.Model(&Violation{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting violations: %w", err)
	}
	return count, nil
}
