package models

// Product represents a sellable item in the store catalog.
// Code is the scanned barcode; Price is tax-exclusive, in minor currency units.
type Product struct {
	ID    uint   `gorm:"primaryKey"`
	Code  string `gorm:"size:13;uniqueIndex;not null"`
	Name  string `gorm:"size:50;not null"`
	Price int64  `gorm:"not null"`
}

func (p *Product) TableName() string {
	return "products"
}
