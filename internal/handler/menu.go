package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dishly/api/internal/database"
	"github.com/dishly/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	GetDish(ctx context.Context, id int64) (database.Dish, error)
	ListDishesByCategory(ctx context.Context, categoryID int64) ([]database.Dish, error)
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	UpdateDish(ctx context.Context, arg database.UpdateDishParams) (database.Dish, error)
	CreateOptionGroup(ctx context.Context, arg database.CreateOptionGroupParams) (database.OptionGroup, error)
	ListOptionGroupsByDish(ctx context.Context, dishID int64) ([]database.OptionGroup, error)
	CreateOptionItem(ctx context.Context, arg database.CreateOptionItemParams) (database.OptionItem, error)
	ListOptionItemsByGroup(ctx context.Context, groupID int64) ([]database.OptionItem, error)
}

// MenuHandler handles catalog administration and the public menu.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterAdminRoutes registers catalog mutation endpoints. Expected to be
// mounted behind the admin role gate.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Get("/dishes/{id}", h.GetDish)
	r.Post("/dishes", h.CreateDish)
	r.Put("/dishes/{id}", h.UpdateDish)
	r.Get("/dishes/{id}/option-groups", h.ListOptionGroups)
	r.Post("/dishes/{id}/option-groups", h.CreateOptionGroup)
	r.Get("/option-groups/{id}/items", h.ListOptionItems)
	r.Post("/option-groups/{id}/items", h.CreateOptionItem)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

type categoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

type createDishRequest struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	ImageURL   string `json:"image_url"`
	Stock      int32  `json:"stock"`
	Status     string `json:"status"`
}

type updateDishRequest struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	ImageURL   string `json:"image_url"`
	Status     string `json:"status"`
}

type dishResponse struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	ImageURL   *string   `json:"image_url"`
	Stock      int32     `json:"stock"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type createOptionGroupRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	MaxSelect int32  `json:"max_select"`
}

type optionGroupResponse struct {
	ID        int64  `json:"id"`
	DishID    int64  `json:"dish_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	MaxSelect int32  `json:"max_select"`
}

type createOptionItemRequest struct {
	Name       string `json:"name"`
	PriceDelta string `json:"price_delta"`
	Available  *bool  `json:"available"`
}

type optionItemResponse struct {
	ID         int64  `json:"id"`
	GroupID    int64  `json:"group_id"`
	Name       string `json:"name"`
	PriceDelta string `json:"price_delta"`
	Available  bool   `json:"available"`
}

// menuCategory is one category in the public menu tree.
type menuCategory struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Dishes []menuDish `json:"dishes"`
}

type menuDish struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        string          `json:"price"`
	ImageURL     *string         `json:"image_url"`
	Stock        int32           `json:"stock"`
	OptionGroups []menuOptionGrp `json:"option_groups"`
}

type menuOptionGrp struct {
	ID        int64                `json:"id"`
	Name      string               `json:"name"`
	Type      string               `json:"type"`
	Required  bool                 `json:"required"`
	MaxSelect int32                `json:"max_select"`
	Items     []optionItemResponse `json:"items"`
}

// --- Category handlers ---

// ListCategories handles GET /categories.
func (h *MenuHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name, SortOrder: c.SortOrder}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCategory handles POST /categories.
func (h *MenuHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{ID: category.ID, Name: category.Name, SortOrder: category.SortOrder})
}

// UpdateCategory handles PUT /categories/{id}.
func (h *MenuHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.store.UpdateCategory(r.Context(), database.UpdateCategoryParams{
		ID:        id,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: update category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{ID: category.ID, Name: category.Name, SortOrder: category.SortOrder})
}

// --- Dish handlers ---

// GetDish handles GET /dishes/{id}.
func (h *MenuHandler) GetDish(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	dish, err := h.store.GetDish(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: get dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// CreateDish handles POST /dishes.
func (h *MenuHandler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req createDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.CategoryID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return
	}
	if req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must be >= 0"})
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return
	}

	status := req.Status
	if status == "" {
		status = enum.DishStatusOnShelf
	}
	if !isValidDishStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Price:      price,
		ImageURL:   imageURL,
		Stock:      req.Stock,
		Status:     status,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		log.Printf("ERROR: create dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toDishResponse(dish))
}

// UpdateDish handles PUT /dishes/{id}. Stock changes go through the stock
// adjustment endpoints, not here.
func (h *MenuHandler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	var req updateDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.CategoryID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return
	}

	if !isValidDishStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	dish, err := h.store.UpdateDish(r.Context(), database.UpdateDishParams{
		ID:         id,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Price:      price,
		ImageURL:   imageURL,
		Status:     req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		log.Printf("ERROR: update dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// --- Option handlers ---

// ListOptionGroups handles GET /dishes/{id}/option-groups.
func (h *MenuHandler) ListOptionGroups(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	groups, err := h.store.ListOptionGroupsByDish(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list option groups: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]optionGroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toOptionGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateOptionGroup handles POST /dishes/{id}/option-groups.
func (h *MenuHandler) CreateOptionGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	var req createOptionGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Type != enum.OptionTypeSingle && req.Type != enum.OptionTypeMultiple {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid type"})
		return
	}

	group, err := h.store.CreateOptionGroup(r.Context(), database.CreateOptionGroupParams{
		DishID:    id,
		Name:      req.Name,
		Type:      req.Type,
		Required:  req.Required,
		MaxSelect: req.MaxSelect,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
			return
		}
		log.Printf("ERROR: create option group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toOptionGroupResponse(group))
}

// ListOptionItems handles GET /option-groups/{id}/items.
func (h *MenuHandler) ListOptionItems(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	items, err := h.store.ListOptionItemsByGroup(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list option items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]optionItemResponse, len(items))
	for i, item := range items {
		resp[i] = toOptionItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateOptionItem handles POST /option-groups/{id}/items.
func (h *MenuHandler) CreateOptionItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	var req createOptionItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	// Deltas may be negative (discount options); only the format is validated.
	delta := req.PriceDelta
	if delta == "" {
		delta = "0"
	}
	d, err := decimal.NewFromString(delta)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price_delta"})
		return
	}
	var priceDelta pgtype.Numeric
	if err := priceDelta.Scan(d.String()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price_delta"})
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	item, err := h.store.CreateOptionItem(r.Context(), database.CreateOptionItemParams{
		GroupID:    id,
		Name:       req.Name,
		PriceDelta: priceDelta,
		Available:  available,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
			return
		}
		log.Printf("ERROR: create option item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toOptionItemResponse(item))
}

// --- Public menu ---

// Browse handles GET /menu: the full catalog tree with on-shelf dishes and
// their available options.
func (h *MenuHandler) Browse(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	menu := make([]menuCategory, 0, len(categories))
	for _, c := range categories {
		dishes, err := h.store.ListDishesByCategory(r.Context(), c.ID)
		if err != nil {
			log.Printf("ERROR: list dishes: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		mc := menuCategory{ID: c.ID, Name: c.Name, Dishes: []menuDish{}}
		for _, d := range dishes {
			if d.Status != enum.DishStatusOnShelf {
				continue
			}

			md := menuDish{
				ID:           d.ID,
				Name:         d.Name,
				Price:        numericToString(d.Price),
				Stock:        d.Stock,
				OptionGroups: []menuOptionGrp{},
			}
			if d.ImageURL.Valid {
				md.ImageURL = &d.ImageURL.String
			}

			groups, err := h.store.ListOptionGroupsByDish(r.Context(), d.ID)
			if err != nil {
				log.Printf("ERROR: list option groups: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			for _, g := range groups {
				items, err := h.store.ListOptionItemsByGroup(r.Context(), g.ID)
				if err != nil {
					log.Printf("ERROR: list option items: %v", err)
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
					return
				}

				mg := menuOptionGrp{
					ID:        g.ID,
					Name:      g.Name,
					Type:      g.Type,
					Required:  g.Required,
					MaxSelect: g.MaxSelect,
					Items:     []optionItemResponse{},
				}
				for _, item := range items {
					if !item.Available {
						continue
					}
					mg.Items = append(mg.Items, toOptionItemResponse(item))
				}
				md.OptionGroups = append(md.OptionGroups, mg)
			}

			mc.Dishes = append(mc.Dishes, md)
		}
		menu = append(menu, mc)
	}

	writeJSON(w, http.StatusOK, menu)
}

// --- Helpers ---

func toDishResponse(d database.Dish) dishResponse {
	resp := dishResponse{
		ID:         d.ID,
		CategoryID: d.CategoryID,
		Name:       d.Name,
		Price:      numericToString(d.Price),
		Stock:      d.Stock,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.ImageURL.Valid {
		resp.ImageURL = &d.ImageURL.String
	}
	return resp
}

func toOptionGroupResponse(g database.OptionGroup) optionGroupResponse {
	return optionGroupResponse{
		ID:        g.ID,
		DishID:    g.DishID,
		Name:      g.Name,
		Type:      g.Type,
		Required:  g.Required,
		MaxSelect: g.MaxSelect,
	}
}

func toOptionItemResponse(o database.OptionItem) optionItemResponse {
	return optionItemResponse{
		ID:         o.ID,
		GroupID:    o.GroupID,
		Name:       o.Name,
		PriceDelta: numericToString(o.PriceDelta),
		Available:  o.Available,
	}
}

func isValidDishStatus(s string) bool {
	return s == enum.DishStatusOnShelf || s == enum.DishStatusOffShelf
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var errNegativePrice = errors.New("negative price")

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// numericToString formats a money column with 2 decimal places.
func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
