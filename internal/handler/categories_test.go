package handler_test

import (
	"context"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Mock store ---

type mockCategoryStore struct {
	categories map[uuid.UUID]database.Category // keyed by category ID
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{categories: make(map[uuid.UUID]database.Category)}
}

func (m *mockCategoryStore) ListCategories(_ context.Context) ([]database.Category, error) {
	result := []database.Category{}
	for _, c := range m.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockCategoryStore) CreateCategory(_ context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	c := database.Category{
		ID:          uuid.New(),
		Name:        arg.Name,
		Description: arg.Description,
		SortOrder:   arg.SortOrder,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCategoryStore) UpdateCategory(_ context.Context, arg database.UpdateCategoryParams) (database.Category, error) {
	c, ok := m.categories[arg.ID]
	if !ok || !c.IsActive {
		return database.Category{}, pgx.ErrNoRows
	}
	c.Name = arg.Name
	c.Description = arg.Description
	c.SortOrder = arg.SortOrder
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCategoryStore) SoftDeleteCategory(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, ok := m.categories[id]
	if !ok || !c.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	c.IsActive = false
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *mockCategoryStore) RestoreCategory(_ context.Context, id uuid.UUID) (database.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return database.Category{}, pgx.ErrNoRows
	}
	c.IsActive = true
	m.categories[c.ID] = c
	return c, nil
}

// --- Helpers ---

func setupCategoryRouter(store *mockCategoryStore) *chi.Mux {
	h := handler.NewCategoryHandler(store)
	r := chi.NewRouter()
	r.Route("/categories", h.RegisterRoutes)
	return r
}

func addCategory(store *mockCategoryStore, name string, sortOrder int32, active bool) uuid.UUID {
	id := uuid.New()
	store.categories[id] = database.Category{
		ID: id, Name: name, SortOrder: sortOrder, IsActive: active, CreatedAt: time.Now(),
	}
	return id
}

// --- List tests ---

func TestCategoryList_Empty(t *testing.T) {
	rr := doRequest(t, setupCategoryRouter(newMockCategoryStore()), "GET", "/categories", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeListResponse(t, rr); len(resp) != 0 {
		t.Errorf("expected empty list, got %d items", len(resp))
	}
}

func TestCategoryList_IncludesInactiveInSortOrder(t *testing.T) {
	store := newMockCategoryStore()
	addCategory(store, "Bebidas", 2, true)
	addCategory(store, "Lanches", 1, true)
	addCategory(store, "Sazonal", 3, false)

	rr := doRequest(t, setupCategoryRouter(store), "GET", "/categories", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(resp))
	}
	want := []string{"Lanches", "Bebidas", "Sazonal"}
	for i, name := range want {
		if resp[i]["name"] != name {
			t.Errorf("categories[%d]: got %v, want %s", i, resp[i]["name"], name)
		}
	}
	if resp[2]["is_active"] != false {
		t.Errorf("inactive category should report is_active=false")
	}
}

// --- Create tests ---

func TestCategoryCreate_Valid(t *testing.T) {
	rr := doRequest(t, setupCategoryRouter(newMockCategoryStore()), "POST", "/categories", map[string]interface{}{
		"name":        "  Bebidas ",
		"description": "Sucos e refrigerantes",
		"sort_order":  2,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Bebidas" {
		t.Errorf("name: got %v, want trimmed Bebidas", resp["name"])
	}
	if resp["description"] != "Sucos e refrigerantes" {
		t.Errorf("description: got %v", resp["description"])
	}
	// JSON numbers decode as float64
	if resp["sort_order"] != float64(2) {
		t.Errorf("sort_order: got %v, want 2", resp["sort_order"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}
}

func TestCategoryCreate_BlankDescriptionIsNull(t *testing.T) {
	rr := doRequest(t, setupCategoryRouter(newMockCategoryStore()), "POST", "/categories", map[string]interface{}{
		"name":        "Lanches",
		"description": "   ",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusCreated)
	}
	resp := decodeResponse(t, rr)
	if resp["description"] != nil {
		t.Errorf("description: got %v, want null", resp["description"])
	}
}

func TestCategoryCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing name", map[string]interface{}{"description": "No name"}},
		{"blank name", map[string]interface{}{"name": "   "}},
		{"not an object", "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockCategoryStore()
			rr := doRequest(t, setupCategoryRouter(store), "POST", "/categories", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if len(store.categories) != 0 {
				t.Errorf("nothing should be created on a bad request")
			}
		})
	}
}

// --- Update tests ---

func TestCategoryUpdate_Valid(t *testing.T) {
	store := newMockCategoryStore()
	id := addCategory(store, "Old Name", 0, true)

	rr := doRequest(t, setupCategoryRouter(store), "PUT", "/categories/"+id.String(), map[string]interface{}{
		"name":        "New Name",
		"description": "Updated desc",
		"sort_order":  5,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "New Name" {
		t.Errorf("name: got %v, want 'New Name'", resp["name"])
	}
	if resp["sort_order"] != float64(5) {
		t.Errorf("sort_order: got %v, want 5", resp["sort_order"])
	}
}

func TestCategoryUpdate_Errors(t *testing.T) {
	store := newMockCategoryStore()
	id := addCategory(store, "Lanches", 0, true)
	deleted := addCategory(store, "Antigos", 0, false)

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"unknown id", "/categories/" + uuid.New().String(), map[string]interface{}{"name": "X"}, http.StatusNotFound},
		{"soft-deleted", "/categories/" + deleted.String(), map[string]interface{}{"name": "X"}, http.StatusNotFound},
		{"invalid id", "/categories/not-a-uuid", map[string]interface{}{"name": "X"}, http.StatusBadRequest},
		{"missing name", "/categories/" + id.String(), map[string]interface{}{"sort_order": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, setupCategoryRouter(store), "PUT", tt.path, tt.body)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

// --- Delete tests ---

func TestCategoryDelete_SoftDeletes(t *testing.T) {
	store := newMockCategoryStore()
	id := addCategory(store, "Lanches", 0, true)
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "DELETE", "/categories/"+id.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if store.categories[id].IsActive {
		t.Error("category should be inactive after delete")
	}

	rr = doRequest(t, router, "DELETE", "/categories/"+id.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCategoryDelete_InvalidID(t *testing.T) {
	rr := doRequest(t, setupCategoryRouter(newMockCategoryStore()), "DELETE", "/categories/not-a-uuid", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRestoreCategory(t *testing.T) {
	store := newMockCategoryStore()
	id := addCategory(store, "Sobremesas", 3, false)
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/categories/"+id.String()+"/restore", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}

	// The restored category is editable again.
	rr = doRequest(t, router, "PUT", "/categories/"+id.String(), map[string]interface{}{"name": "Doces"})
	if rr.Code != http.StatusOK {
		t.Errorf("update after restore: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRestoreCategory_NotFound(t *testing.T) {
	rr := doRequest(t, setupCategoryRouter(newMockCategoryStore()), "POST", "/categories/"+uuid.New().String()+"/restore", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
