package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is one entry of the append-only trade log.
// Shares is signed: positive for buys, negative for sells.
type Transaction struct {
	gorm.Model
	OwnerID   uint `gorm:"index"`
	Symbol    string
	Shares    int64
	Price     decimal.Decimal `gorm:"type:decimal(20,4)"`
	Timestamp time.Time
}
