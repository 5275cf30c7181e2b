package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

type bikeResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Deposit     float64   `json:"deposit"`
	Stock       int       `json:"stock"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type bikeSummaryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Deposit  float64 `json:"deposit"`
	Image    string  `json:"image,omitempty"`
}

type sellerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type bikeDetailResponse struct {
	bikeResponse
	Owner sellerResponse `json:"owner"`
}

type bikeStatsResponse struct {
	bikeResponse
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func (h *Handler) toBikeResponse(b *bike.Bike) bikeResponse {
	return bikeResponse{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		Description: b.Description,
		Price:       b.Price.InexactFloat64(),
		Deposit:     b.Deposit.InexactFloat64(),
		Stock:       b.Stock,
		Image:       h.imageURL(b.ImageURL),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (h *Handler) toBikeSummaryResponse(s bike.Summary) bikeSummaryResponse {
	return bikeSummaryResponse{
		ID:       s.ID,
		Name:     s.Name,
		Category: s.Category,
		Price:    s.Price.InexactFloat64(),
		Deposit:  s.Deposit.InexactFloat64(),
		Image:    h.imageURL(s.ImageURL),
	}
}

func toSellerResponse(s identity.Seller) sellerResponse {
	return sellerResponse{
		ID:      s.ID,
		Name:    s.Name,
		Email:   s.Email,
		Phone:   s.Phone,
		Address: s.Address,
	}
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func listParamsFromQuery(r *http.Request) bike.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	params := bike.ListParams{
		Page:   page,
		Limit:  limit,
		SortBy: q.Get("sortBy"),
		Desc:   q.Get("dir") == "desc",
	}
	params.Normalize()
	return params
}

// ListBikes returns a page of the catalog.
func (h *Handler) ListBikes(w http.ResponseWriter, r *http.Request) {
	bikes, err := h.bikes.List(r.Context(), listParamsFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]bikeResponse, len(bikes))
	for i := range bikes {
		resp[i] = h.toBikeResponse(&bikes[i])
	}
	writeData(w, r, http.StatusOK, resp)
}

// ListBikesByCategory returns a page of the catalog filtered by category.
func (h *Handler) ListBikesByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	bikes, err := h.bikes.ListByCategory(r.Context(), category, listParamsFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]bikeResponse, len(bikes))
	for i := range bikes {
		resp[i] = h.toBikeResponse(&bikes[i])
	}
	writeData(w, r, http.StatusOK, resp)
}

// GetBike returns one bike joined with its owner's public profile.
func (h *Handler) GetBike(w http.ResponseWriter, r *http.Request) {
	detail, err := h.bikes.GetDetail(r.Context(), r.PathValue("bikeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, r, http.StatusOK, bikeDetailResponse{
		bikeResponse: h.toBikeResponse(&detail.Bike),
		Owner:        toSellerResponse(detail.Owner),
	})
}

type createBikeRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Deposit     float64 `json:"deposit"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
}

// CreateBike lists a new bike owned by the calling seller.
func (h *Handler) CreateBike(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req createBikeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" || req.Category == "" || req.Price <= 0 || req.Stock < 0 {
		writeError(w, r, errBadBody)
		return
	}

	b := &bike.Bike{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Deposit:     decimal.NewFromFloat(req.Deposit),
		Stock:       req.Stock,
		ImageURL:    req.Image,
		OwnerID:     p.SubjectID,
	}
	if err := h.bikes.Create(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, h.toBikeResponse(b))
}

type updateBikeRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Deposit     *float64 `json:"deposit"`
	Image       *string  `json:"image"`
}

// UpdateBike applies a partial update to a bike's listed details.
func (h *Handler) UpdateBike(w http.ResponseWriter, r *http.Request) {
	var req updateBikeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	upd := bike.Update{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.Image,
	}
	if req.Price != nil {
		d := decimal.NewFromFloat(*req.Price)
		upd.Price = &d
	}
	if req.Deposit != nil {
		d := decimal.NewFromFloat(*req.Deposit)
		upd.Deposit = &d
	}

	b, err := h.bikes.Update(r.Context(), r.PathValue("bikeID"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, h.toBikeResponse(b))
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

// SetBikeStock replaces a bike's stock level.
func (h *Handler) SetBikeStock(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Stock < 0 {
		writeError(w, r, errBadBody)
		return
	}

	if err := h.bikes.SetStock(r.Context(), r.PathValue("bikeID"), req.Stock); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

// DeleteBike removes a bike from the catalog.
func (h *Handler) DeleteBike(w http.ResponseWriter, r *http.Request) {
	if err := h.bikes.Delete(r.Context(), r.PathValue("bikeID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

// ListOwnBikes returns the calling seller's bikes with review statistics.
func (h *Handler) ListOwnBikes(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	bikes, err := h.bikes.ListByOwner(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]bikeStatsResponse, len(bikes))
	for i := range bikes {
		resp[i] = bikeStatsResponse{
			bikeResponse:  h.toBikeResponse(&bikes[i].Bike),
			AverageRating: bikes[i].AverageRating,
			ReviewCount:   bikes[i].ReviewCount,
		}
	}
	writeData(w, r, http.StatusOK, resp)
}
