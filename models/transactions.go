package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the header row of a completed purchase.
// It is written once, together with its lines, and never updated.
type Transaction struct {
	ID               uint64            `gorm:"primaryKey"`
	EmployeeID       string            `gorm:"size:16;not null"`
	StoreID          string            `gorm:"size:16;not null"`
	RegisterID       string            `gorm:"size:16;not null"`
	TotalAmount      decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	TotalAmountExTax decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time         `gorm:"not null"`
	Lines            []TransactionLine `gorm:"foreignKey:TransactionID"`
}

func (t *Transaction) TableName() string {
	return "transactions"
}

// TransactionLine is one cart line of a transaction. UnitPrice and
// ProductName are snapshots taken when the purchase was committed.
type TransactionLine struct {
	ID            uint64 `gorm:"primaryKey"`
	TransactionID uint64 `gorm:"not null;index"`
	LineNo        int    `gorm:"not null"`
	ProductCode   string `gorm:"size:32;not null"`
	ProductName   string `gorm:"size:50;not null"`
	Qty           int    `gorm:"not null"`
	UnitPrice     int64  `gorm:"not null"`
}

func (l *TransactionLine) TableName() string {
	return "transaction_lines"
}
