package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTransactionNotFound is returned when no transaction has the requested id.
var ErrTransactionNotFound = errors.New("transaction not found")

const lineInsertBatchSize = 100

// PurchaseTx is the unit of work handed to WithinTx callbacks.
// Every call made through it runs inside the same database transaction.
type PurchaseTx interface {
	FindByCodes(ctx context.Context, codes []string) ([]Product, error)
	InsertTransaction(ctx context.Context, t *Transaction) error
	InsertTransactionLines(ctx context.Context, lines []TransactionLine) error
}

type TransactionsRepository struct {
	db *gorm.DB
}

func NewTransactionsRepository(db *gorm.DB) *TransactionsRepository {
	return &TransactionsRepository{
		db: db,
	}
}

// WithinTx runs fn in a database transaction. The transaction commits only
// when fn returns nil; an error, a panic or a cancelled ctx rolls it back.
func (r *TransactionsRepository) WithinTx(ctx context.Context, fn func(tx PurchaseTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormPurchaseTx{db: tx})
	})
}

func (r *TransactionsRepository) GetByID(ctx context.Context, id uint64) (*Transaction, error) {
	var t Transaction
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no")
		}).
		First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &t, nil
}

type gormPurchaseTx struct {
	db *gorm.DB
}

func (t *gormPurchaseTx) FindByCodes(ctx context.Context, codes []string) ([]Product, error) {
	return findByCodes(t.db.WithContext(ctx), codes)
}

// InsertTransaction writes the header row and sets tr.ID to the generated key.
// Lines are never written through the association.
func (t *gormPurchaseTx) InsertTransaction(ctx context.Context, tr *Transaction) error {
	if err := t.db.WithContext(ctx).Omit(clause.Associations).Create(tr).Error; err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (t *gormPurchaseTx) InsertTransactionLines(ctx context.Context, lines []TransactionLine) error {
	if len(lines) == 0 {
		return nil
	}
	if err := t.db.WithContext(ctx).CreateInBatches(lines, lineInsertBatchSize).Error; err != nil {
		return fmt.Errorf("insert transaction lines: %w", err)
	}
	return nil
}
