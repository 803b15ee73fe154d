package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

type ProductFilters struct {
	PriceLessThan *int64
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{})

	// Filter
	if filters.PriceLessThan != nil {
		query = query.Where("price < ?", *filters.PriceLessThan)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	// Apply pagination
	if err := query.Order("code").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByCode(ctx context.Context, code string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

// FindByCodes loads every product whose code is in codes with a single query.
// Codes that do not exist are simply absent from the result.
func (r *ProductsRepository) FindByCodes(ctx context.Context, codes []string) ([]Product, error) {
	return findByCodes(r.db.WithContext(ctx), codes)
}

func findByCodes(db *gorm.DB, codes []string) ([]Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var products []Product
	if err := db.Where("code IN ?", codes).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find products by codes: %w", err)
	}
	return products, nil
}
