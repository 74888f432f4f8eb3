package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// SettingsStore defines the database methods needed by settings handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SettingsStore interface {
	GetSettings(ctx context.Context) (database.RestaurantSetting, error)
	UpdateSettings(ctx context.Context, arg database.UpdateSettingsParams) (database.RestaurantSetting, error)
}

// SettingsHandler handles restaurant settings and the WhatsApp contact link.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers the public read endpoint.
// Expected to be mounted at /settings.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

// RegisterOwnerRoutes registers the settings update.
// Expected to be mounted at /settings behind an OWNER role check.
func (h *SettingsHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Put("/", h.Update)
}

// RegisterContactRoutes registers the public contact endpoints.
// Expected to be mounted at /contact.
func (h *SettingsHandler) RegisterContactRoutes(r chi.Router) {
	r.Get("/whatsapp", h.WhatsAppLink)
}

// --- Request / Response types ---

type settingsRequest struct {
	Name             string `json:"name"`
	WhatsappPhone    string `json:"whatsapp_phone"`
	WhatsappGreeting string `json:"whatsapp_greeting"`
	DeliveryFee      string `json:"delivery_fee"`
}

type settingsResponse struct {
	Name             string    `json:"name"`
	WhatsappPhone    string    `json:"whatsapp_phone"`
	WhatsappGreeting string    `json:"whatsapp_greeting"`
	DeliveryFee      string    `json:"delivery_fee"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// --- Handlers ---

// Get returns the restaurant settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(s))
}

// Update replaces the restaurant settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	fee, err := decimal.NewFromString(req.DeliveryFee)
	if err != nil || fee.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery_fee must be a non-negative decimal"})
		return
	}

	var numeric pgtype.Numeric
	if err := numeric.Scan(fee.StringFixed(2)); err != nil {
		log.Printf("ERROR: convert delivery fee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s, err := h.store.UpdateSettings(r.Context(), database.UpdateSettingsParams{
		Name:             name,
		WhatsappPhone:    strings.TrimSpace(req.WhatsappPhone),
		WhatsappGreeting: strings.TrimSpace(req.WhatsappGreeting),
		DeliveryFee:      numeric,
	})
	if err != nil {
		log.Printf("ERROR: update settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(s))
}

// WhatsAppLink returns a wa.me link pre-filled with the restaurant greeting.
func (h *SettingsHandler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if s.WhatsappPhone == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "whatsapp contact not configured"})
		return
	}

	greeting := s.WhatsappGreeting
	if greeting == "" {
		greeting = messaging.DefaultGreeting
	}
	writeJSON(w, http.StatusOK, linkResponse{URL: messaging.Link(s.WhatsappPhone, greeting)})
}

func toSettingsResponse(s database.RestaurantSetting) settingsResponse {
	return settingsResponse{
		Name:             s.Name,
		WhatsappPhone:    s.WhatsappPhone,
		WhatsappGreeting: s.WhatsappGreeting,
		DeliveryFee:      numericToString(s.DeliveryFee),
		UpdatedAt:        s.UpdatedAt,
	}
}
