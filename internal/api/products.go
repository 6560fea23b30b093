package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

// ProductsHandler manages the product catalog.
type ProductsHandler struct {
	DB *sql.DB
	// Catalog is the official catalog applied by Seed.
	Catalog []model.Product
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	products, err := store.ListProducts(r.Context(), h.DB, activeOnly)
	if err != nil {
		domainError(w, "list products", err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Get handles GET /api/products/{key}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := store.GetProduct(r.Context(), h.DB, r.PathValue("key"))
	if err != nil {
		domainError(w, "get product", err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Put handles PUT /api/products/{key}.
func (h *ProductsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req model.Product
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.Key = r.PathValue("key")

	p, err := store.UpsertProduct(r.Context(), h.DB, req)
	if err != nil {
		domainError(w, "upsert product", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("product saved", "user", claims.Username, "product", p.Key, "multiplier", p.TicketMultiplier, "active", p.Active)
	jsonResponse(w, http.StatusOK, p)
}

// Delete handles DELETE /api/products/{key}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	p, err := store.GetProduct(r.Context(), h.DB, key)
	if err != nil {
		domainError(w, "delete product", err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := store.DeleteProduct(r.Context(), h.DB, key); err != nil {
		domainError(w, "delete product", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("product deleted", "user", claims.Username, "product", key)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// Seed handles POST /api/products/seed.
func (h *ProductsHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if err := store.SeedProducts(r.Context(), h.DB, h.Catalog); err != nil {
		domainError(w, "seed products", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("catalog seeded", "user", claims.Username, "products", len(h.Catalog))
	jsonResponse(w, http.StatusOK, map[string]int{"seeded": len(h.Catalog)})
}
