package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tech0-pos/pos-api/app/render"
	"github.com/tech0-pos/pos-api/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Product struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
}

type CatalogHandler struct {
	repo ProductProvider
}

func NewCatalogHandler(r ProductProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	var filters models.ProductFilters
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseInt(priceStr, 10, 64); err == nil {
			filters.PriceLessThan = &val
		}
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		render.Error(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = Product{
			Code:  p.Code,
			Name:  p.Name,
			Price: p.Price,
		}
	}

	render.JSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

// HandleSearch resolves a scanned code: GET /products/search?code=...
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		render.Error(w, http.StatusBadRequest, "Missing code")
		return
	}

	product, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			render.Error(w, http.StatusNotFound, "Product not found")
			return
		}
		render.Error(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	render.JSON(w, http.StatusOK, Product{
		Code:  product.Code,
		Name:  product.Name,
		Price: product.Price,
	})
}
