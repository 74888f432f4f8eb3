package handler

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// MenuStore defines the database methods needed to load the public catalog.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListActiveCategories(ctx context.Context) ([]database.Category, error)
	ListAvailableMenuItems(ctx context.Context, arg database.ListAvailableMenuItemsParams) ([]database.MenuItem, error)
}

// MenuHandler serves the catalog to the customer menu and the PDV.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers the public catalog endpoint.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Get)
}

type menuResponse struct {
	Categories []categoryResponse `json:"categories"`
	Items      []menuItemResponse `json:"items"`
}

// Get handles GET /menu?category_id=&q=. Categories are active ones by
// sort_order; items are available ones by sort_order, optionally narrowed to
// a category and a case-insensitive name search.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := database.ListAvailableMenuItemsParams{}
	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		params.CategoryID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		params.Search = pgtype.Text{String: q, Valid: true}
	}

	categories, err := h.store.ListActiveCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list active categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListAvailableMenuItems(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list available menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := menuResponse{
		Categories: make([]categoryResponse, len(categories)),
		Items:      make([]menuItemResponse, len(items)),
	}
	for i, c := range categories {
		resp.Categories[i] = toCategoryResponse(c)
	}
	for i, mi := range items {
		resp.Items[i] = toMenuItemResponse(mi)
	}

	writeJSON(w, http.StatusOK, resp)
}
