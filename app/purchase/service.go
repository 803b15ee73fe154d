package purchase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/tech0-pos/pos-api/models"
)

const maxMetadataLen = 16

// Purchase outcomes reported to the Recorder.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

type CartLine struct {
	Code string
	Qty  int
}

type PurchaseRequest struct {
	Items      []CartLine
	EmployeeID string
	StoreID    string
	RegisterID string
}

// Receipt amounts are whole minor currency units.
type Receipt struct {
	TransactionID uint64
	TotalIncTax   int64
	TotalExTax    int64
}

// Store opens the unit of work a purchase is committed in.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx models.PurchaseTx) error) error
}

type TransactionReader interface {
	GetByID(ctx context.Context, id uint64) (*models.Transaction, error)
}

type Recorder interface {
	ObservePurchase(outcome string, lines int)
}

type nopRecorder struct{}

func (nopRecorder) ObservePurchase(string, int) {}

type Service struct {
	store        Store
	transactions TransactionReader
	logger       zerolog.Logger
	recorder     Recorder
}

func NewService(store Store, transactions TransactionReader, logger zerolog.Logger, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		store:        store,
		transactions: transactions,
		logger:       logger,
		recorder:     recorder,
	}
}

// CommitPurchase prices the cart against the catalog and records one
// transaction with one line per cart entry. Either everything is written or
// nothing is.
func (s *Service) CommitPurchase(ctx context.Context, req PurchaseRequest) (*Receipt, error) {
	if err := validateRequest(req); err != nil {
		s.recorder.ObservePurchase(OutcomeRejected, len(req.Items))
		return nil, err
	}

	codes := distinctCodes(req.Items)

	var receipt *Receipt
	err := s.store.WithinTx(ctx, func(tx models.PurchaseTx) error {
		products, err := tx.FindByCodes(ctx, codes)
		if err != nil {
			return &PersistenceError{Op: "lookup products", Err: err}
		}

		byCode := make(map[string]models.Product, len(products))
		for _, p := range products {
			byCode[p.Code] = p
		}

		if missing := missingCodes(codes, byCode); len(missing) > 0 {
			return &ValidationError{Err: ErrUnknownProducts, Codes: missing}
		}

		priced := make([]PricedLine, len(req.Items))
		for i, item := range req.Items {
			p := byCode[item.Code]
			priced[i] = PricedLine{
				Code:      p.Code,
				Name:      p.Name,
				Qty:       item.Qty,
				UnitPrice: p.Price,
			}
		}
		totals := ComputeTotals(priced)

		header := &models.Transaction{
			EmployeeID:       req.EmployeeID,
			StoreID:          req.StoreID,
			RegisterID:       req.RegisterID,
			TotalAmount:      totals.IncTax,
			TotalAmountExTax: totals.ExTax,
		}
		if err := tx.InsertTransaction(ctx, header); err != nil {
			return &PersistenceError{Op: "insert transaction", Err: err}
		}

		lines := make([]models.TransactionLine, len(priced))
		for i, l := range priced {
			lines[i] = models.TransactionLine{
				TransactionID: header.ID,
				LineNo:        i + 1,
				ProductCode:   l.Code,
				ProductName:   l.Name,
				Qty:           l.Qty,
				UnitPrice:     l.UnitPrice,
			}
		}
		if err := tx.InsertTransactionLines(ctx, lines); err != nil {
			return &PersistenceError{Op: "insert transaction lines", Err: err}
		}

		receipt = &Receipt{
			TransactionID: header.ID,
			TotalIncTax:   totals.IncTax.IntPart(),
			TotalExTax:    totals.ExTax.IntPart(),
		}
		return nil
	})
	logger := s.loggerFor(ctx)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.recorder.ObservePurchase(OutcomeRejected, len(req.Items))
			logger.Info().
				Strs("codes", verr.Codes).
				Str("store_id", req.StoreID).
				Str("register_id", req.RegisterID).
				Msg("purchase rejected")
			return nil, verr
		}

		var perr *PersistenceError
		if !errors.As(err, &perr) {
			perr = &PersistenceError{Op: "commit", Err: err}
		}
		s.recorder.ObservePurchase(OutcomeFailed, len(req.Items))
		logger.Error().
			Err(perr.Err).
			Str("op", perr.Op).
			Str("store_id", req.StoreID).
			Str("register_id", req.RegisterID).
			Msg("purchase rolled back")
		return nil, perr
	}

	s.recorder.ObservePurchase(OutcomeCommitted, len(req.Items))
	logger.Info().
		Uint64("transaction_id", receipt.TransactionID).
		Int64("total_inc_tax", receipt.TotalIncTax).
		Int64("total_ex_tax", receipt.TotalExTax).
		Int("lines", len(req.Items)).
		Msg("purchase committed")

	return receipt, nil
}

func (s *Service) GetTransaction(ctx context.Context, id uint64) (*models.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrTransactionNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "get transaction", Err: err}
	}
	return t, nil
}

// loggerFor prefers the request-scoped logger installed by the HTTP layer.
func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func validateRequest(req PurchaseRequest) error {
	if len(req.Items) == 0 {
		return &ValidationError{Err: ErrEmptyCart}
	}

	for _, f := range []struct{ name, value string }{
		{"emp_cd", req.EmployeeID},
		{"store_cd", req.StoreID},
		{"pos_no", req.RegisterID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Err: ErrInvalidRequest, Reason: f.name + " is required"}
		}
		if utf8.RuneCountInString(f.value) > maxMetadataLen {
			return &ValidationError{Err: ErrInvalidRequest, Reason: fmt.Sprintf("%s exceeds %d characters", f.name, maxMetadataLen)}
		}
	}

	var badQty []string
	for _, item := range req.Items {
		if strings.TrimSpace(item.Code) == "" {
			return &ValidationError{Err: ErrInvalidRequest, Reason: "product code is required"}
		}
		if item.Qty <= 0 {
			badQty = append(badQty, item.Code)
		}
	}
	if len(badQty) > 0 {
		return &ValidationError{Err: ErrInvalidQuantity, Codes: sortedUnique(badQty)}
	}
	return nil
}

func distinctCodes(items []CartLine) []string {
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Code)
	}
	return sortedUnique(codes)
}

func missingCodes(codes []string, byCode map[string]models.Product) []string {
	var missing []string
	for _, c := range codes {
		if _, ok := byCode[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func sortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
