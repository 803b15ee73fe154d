package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tech0-pos/pos-api/app/render"
	"github.com/tech0-pos/pos-api/models"
)

const maxBodyBytes = 1 << 20

type ItemRequest struct {
	Code string `json:"code"`
	Qty  *int   `json:"qty"`
}

type Request struct {
	Items   []ItemRequest `json:"items"`
	EmpCd   string        `json:"emp_cd"`
	StoreCd string        `json:"store_cd"`
	PosNo   string        `json:"pos_no"`
}

type Response struct {
	TrdID       uint64 `json:"trd_id"`
	TotalAmt    int64  `json:"total_amt"`
	TtlAmtExTax int64  `json:"ttl_amt_ex_tax"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Codes   []string `json:"codes"`
}

type LineResponse struct {
	DtlID     int    `json:"dtl_id"`
	PrdCode   string `json:"prd_code"`
	PrdName   string `json:"prd_name"`
	PrdPrice  int64  `json:"prd_price"`
	Qty       int    `json:"qty"`
	LineTotal int64  `json:"line_total"`
}

type TransactionResponse struct {
	TrdID       uint64         `json:"trd_id"`
	EmpCd       string         `json:"emp_cd"`
	StoreCd     string         `json:"store_cd"`
	PosNo       string         `json:"pos_no"`
	TotalAmt    int64          `json:"total_amt"`
	TtlAmtExTax int64          `json:"ttl_amt_ex_tax"`
	CreatedAt   time.Time      `json:"created_at"`
	Lines       []LineResponse `json:"lines"`
}

type Committer interface {
	CommitPurchase(ctx context.Context, req PurchaseRequest) (*Receipt, error)
	GetTransaction(ctx context.Context, id uint64) (*models.Transaction, error)
}

type PurchaseHandler struct {
	svc Committer
}

func NewPurchaseHandler(svc Committer) *PurchaseHandler {
	return &PurchaseHandler{
		svc: svc,
	}
}

func (h *PurchaseHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var input Request
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		render.JSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid JSON body", Codes: []string{}})
		return
	}

	req := PurchaseRequest{
		Items:      make([]CartLine, len(input.Items)),
		EmployeeID: input.EmpCd,
		StoreID:    input.StoreCd,
		RegisterID: input.PosNo,
	}
	for i, it := range input.Items {
		// qty is optional and defaults to a single unit
		qty := 1
		if it.Qty != nil {
			qty = *it.Qty
		}
		req.Items[i] = CartLine{Code: it.Code, Qty: qty}
	}

	receipt, err := h.svc.CommitPurchase(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			codes := verr.Codes
			if codes == nil {
				codes = []string{}
			}
			render.JSON(w, http.StatusBadRequest, ErrorResponse{Message: verr.Message(), Codes: codes})
			return
		}
		render.JSON(w, http.StatusInternalServerError, map[string]string{"message": "purchase failed"})
		return
	}

	render.JSON(w, http.StatusCreated, Response{
		TrdID:       receipt.TransactionID,
		TotalAmt:    receipt.TotalIncTax,
		TtlAmtExTax: receipt.TotalExTax,
	})
}

func (h *PurchaseHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrTransactionNotFound) {
			render.Error(w, http.StatusNotFound, "transaction not found")
			return
		}
		render.Error(w, http.StatusInternalServerError, "failed to retrieve transaction")
		return
	}

	lines := make([]LineResponse, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = LineResponse{
			DtlID:     l.LineNo,
			PrdCode:   l.ProductCode,
			PrdName:   l.ProductName,
			PrdPrice:  l.UnitPrice,
			Qty:       l.Qty,
			LineTotal: l.UnitPrice * int64(l.Qty),
		}
	}

	render.JSON(w, http.StatusOK, TransactionResponse{
		TrdID:       t.ID,
		EmpCd:       t.EmployeeID,
		StoreCd:     t.StoreID,
		PosNo:       t.RegisterID,
		TotalAmt:    t.TotalAmount.IntPart(),
		TtlAmtExTax: t.TotalAmountExTax.IntPart(),
		CreatedAt:   t.CreatedAt,
		Lines:       lines,
	})
}
