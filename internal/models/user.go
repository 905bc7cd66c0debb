package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is a registered account. Cash is the play-money balance, mutated only
// by buy and sell operations. Users are never deleted.
type User struct {
	gorm.Model
	Username     string          `gorm:"uniqueIndex;not null"`
	PasswordHash string          `gorm:"not null"`
	Cash         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
}
