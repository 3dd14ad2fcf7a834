package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dishly/api/internal/database"
	"github.com/dishly/api/internal/enum"
	"github.com/dishly/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock MenuStore ---

type mockMenuStore struct {
	listCategoriesFn         func(ctx context.Context) ([]database.Category, error)
	createCategoryFn         func(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	updateCategoryFn         func(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	getDishFn                func(ctx context.Context, id int64) (database.Dish, error)
	listDishesByCategoryFn   func(ctx context.Context, categoryID int64) ([]database.Dish, error)
	createDishFn             func(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	updateDishFn             func(ctx context.Context, arg database.UpdateDishParams) (database.Dish, error)
	createOptionGroupFn      func(ctx context.Context, arg database.CreateOptionGroupParams) (database.OptionGroup, error)
	listOptionGroupsByDishFn func(ctx context.Context, dishID int64) ([]database.OptionGroup, error)
	createOptionItemFn       func(ctx context.Context, arg database.CreateOptionItemParams) (database.OptionItem, error)
	listOptionItemsByGroupFn func(ctx context.Context, groupID int64) ([]database.OptionItem, error)
}

func (m *mockMenuStore) ListCategories(ctx context.Context) ([]database.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx)
	}
	return nil, nil
}

func (m *mockMenuStore) CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(ctx, arg)
	}
	return database.Category{ID: 1, Name: arg.Name, SortOrder: arg.SortOrder}, nil
}

func (m *mockMenuStore) UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(ctx, arg)
	}
	return database.Category{}, pgx.ErrNoRows
}

func (m *mockMenuStore) GetDish(ctx context.Context, id int64) (database.Dish, error) {
	if m.getDishFn != nil {
		return m.getDishFn(ctx, id)
	}
	return database.Dish{}, pgx.ErrNoRows
}

func (m *mockMenuStore) ListDishesByCategory(ctx context.Context, categoryID int64) ([]database.Dish, error) {
	if m.listDishesByCategoryFn != nil {
		return m.listDishesByCategoryFn(ctx, categoryID)
	}
	return nil, nil
}

func (m *mockMenuStore) CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error) {
	if m.createDishFn != nil {
		return m.createDishFn(ctx, arg)
	}
	return database.Dish{
		ID: 1, CategoryID: arg.CategoryID, Name: arg.Name, Price: arg.Price,
		ImageURL: arg.ImageURL, Stock: arg.Stock, Status: arg.Status,
	}, nil
}

func (m *mockMenuStore) UpdateDish(ctx context.Context, arg database.UpdateDishParams) (database.Dish, error) {
	if m.updateDishFn != nil {
		return m.updateDishFn(ctx, arg)
	}
	return database.Dish{}, pgx.ErrNoRows
}

func (m *mockMenuStore) CreateOptionGroup(ctx context.Context, arg database.CreateOptionGroupParams) (database.OptionGroup, error) {
	if m.createOptionGroupFn != nil {
		return m.createOptionGroupFn(ctx, arg)
	}
	return database.OptionGroup{ID: 1, DishID: arg.DishID, Name: arg.Name, Type: arg.Type}, nil
}

func (m *mockMenuStore) ListOptionGroupsByDish(ctx context.Context, dishID int64) ([]database.OptionGroup, error) {
	if m.listOptionGroupsByDishFn != nil {
		return m.listOptionGroupsByDishFn(ctx, dishID)
	}
	return nil, nil
}

func (m *mockMenuStore) CreateOptionItem(ctx context.Context, arg database.CreateOptionItemParams) (database.OptionItem, error) {
	if m.createOptionItemFn != nil {
		return m.createOptionItemFn(ctx, arg)
	}
	return database.OptionItem{
		ID: 1, GroupID: arg.GroupID, Name: arg.Name,
		PriceDelta: arg.PriceDelta, Available: arg.Available,
	}, nil
}

func (m *mockMenuStore) ListOptionItemsByGroup(ctx context.Context, groupID int64) ([]database.OptionItem, error) {
	if m.listOptionItemsByGroupFn != nil {
		return m.listOptionItemsByGroupFn(ctx, groupID)
	}
	return nil, nil
}

func newMenuRouter(store handler.MenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	h.RegisterAdminRoutes(r)
	r.Get("/menu", h.Browse)
	return r
}

func testNumeric(t *testing.T, val string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(val); err != nil {
		t.Fatalf("scan numeric %q: %v", val, err)
	}
	return n
}

// --- Tests ---

func TestCreateDish(t *testing.T) {
	store := &mockMenuStore{}
	router := newMenuRouter(store)

	body, _ := json.Marshal(map[string]any{
		"category_id": 1,
		"name":        "Mapo Tofu Rice",
		"price":       "20.00",
		"stock":       60,
	})
	req := httptest.NewRequest("POST", "/dishes", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp struct {
		Name   string `json:"name"`
		Price  string `json:"price"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Price != "20.00" {
		t.Errorf("price: got %s, want 20.00", resp.Price)
	}
	if resp.Status != enum.DishStatusOnShelf {
		t.Errorf("default status: got %s, want %s", resp.Status, enum.DishStatusOnShelf)
	}
}

func TestCreateDish_NegativePrice(t *testing.T) {
	router := newMenuRouter(&mockMenuStore{})

	body, _ := json.Marshal(map[string]any{
		"category_id": 1,
		"name":        "Bad Dish",
		"price":       "-1.00",
	})
	req := httptest.NewRequest("POST", "/dishes", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateDish_InvalidStatus(t *testing.T) {
	router := newMenuRouter(&mockMenuStore{})

	body, _ := json.Marshal(map[string]any{
		"category_id": 1,
		"name":        "Bad Dish",
		"price":       "10.00",
		"status":      "Hidden",
	})
	req := httptest.NewRequest("POST", "/dishes", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateOptionItem_DefaultsAvailable(t *testing.T) {
	store := &mockMenuStore{}
	router := newMenuRouter(store)

	body, _ := json.Marshal(map[string]any{
		"name":        "Extra Hot",
		"price_delta": "2.00",
	})
	req := httptest.NewRequest("POST", "/option-groups/1/items", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp struct {
		Available  bool   `json:"available"`
		PriceDelta string `json:"price_delta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Available {
		t.Error("option items should default to available")
	}
	if resp.PriceDelta != "2.00" {
		t.Errorf("price_delta: got %s, want 2.00", resp.PriceDelta)
	}
}

func TestBrowseMenu_FiltersOffShelfAndUnavailable(t *testing.T) {
	store := &mockMenuStore{
		listCategoriesFn: func(ctx context.Context) ([]database.Category, error) {
			return []database.Category{{ID: 1, Name: "Mains", SortOrder: 1}}, nil
		},
		listDishesByCategoryFn: func(ctx context.Context, categoryID int64) ([]database.Dish, error) {
			return []database.Dish{
				{ID: 1, CategoryID: 1, Name: "Noodles", Price: testNumeric(t, "30.00"), Stock: 10, Status: enum.DishStatusOnShelf},
				{ID: 2, CategoryID: 1, Name: "Retired", Price: testNumeric(t, "15.00"), Stock: 0, Status: enum.DishStatusOffShelf},
			}, nil
		},
		listOptionGroupsByDishFn: func(ctx context.Context, dishID int64) ([]database.OptionGroup, error) {
			return []database.OptionGroup{
				{ID: 1, DishID: dishID, Name: "Spice Level", Type: enum.OptionTypeSingle, Required: true, MaxSelect: 1},
			}, nil
		},
		listOptionItemsByGroupFn: func(ctx context.Context, groupID int64) ([]database.OptionItem, error) {
			return []database.OptionItem{
				{ID: 1, GroupID: groupID, Name: "Mild", PriceDelta: testNumeric(t, "0.00"), Available: true},
				{ID: 2, GroupID: groupID, Name: "Gone", PriceDelta: testNumeric(t, "1.00"), Available: false},
			}, nil
		},
	}
	router := newMenuRouter(store)

	req := httptest.NewRequest("GET", "/menu", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var menu []struct {
		Name   string `json:"name"`
		Dishes []struct {
			Name         string `json:"name"`
			Price        string `json:"price"`
			OptionGroups []struct {
				Items []struct {
					Name string `json:"name"`
				} `json:"items"`
			} `json:"option_groups"`
		} `json:"dishes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &menu); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(menu) != 1 || len(menu[0].Dishes) != 1 {
		t.Fatalf("off-shelf dishes must be hidden: %+v", menu)
	}
	if menu[0].Dishes[0].Price != "30.00" {
		t.Errorf("price: got %s, want 30.00", menu[0].Dishes[0].Price)
	}
	items := menu[0].Dishes[0].OptionGroups[0].Items
	if len(items) != 1 || items[0].Name != "Mild" {
		t.Errorf("unavailable options must be hidden: %+v", items)
	}
}

func TestUpdateCategory_NotFound(t *testing.T) {
	router := newMenuRouter(&mockMenuStore{})

	body, _ := json.Marshal(map[string]any{"name": "Renamed", "sort_order": 2})
	req := httptest.NewRequest("PUT", "/categories/99", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
