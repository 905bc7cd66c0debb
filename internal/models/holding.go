package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is a user's current position in one stock symbol.
// Total is the running cost basis, used for display only.
// A holding whose shares reach zero stays in place.
type Holding struct {
	gorm.Model
	OwnerID uint   `gorm:"index;uniqueIndex:idx_owner_symbol"`
	Symbol  string `gorm:"uniqueIndex:idx_owner_symbol"`
	Name    string
	Price   decimal.Decimal `gorm:"type:decimal(20,4)"` // last trade price seen
	Shares  int64           `gorm:"not null"`
	Total   decimal.Decimal `gorm:"type:decimal(20,4)"`
}
