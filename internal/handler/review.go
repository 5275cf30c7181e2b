package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pedalworks/bike-rental/internal/domain/review"
)

type reviewResponse struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Rating    int              `json:"rating"`
	Author    customerResponse `json:"author"`
	CreatedAt time.Time        `json:"created_at"`
}

type reviewListResponse struct {
	Reviews       []reviewResponse `json:"reviews"`
	Count         int              `json:"count"`
	AverageRating float64          `json:"average_rating"`
}

type addReviewRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// AddReview records the calling customer's review of a bike.
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req addReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rev := &review.Review{
		ID:         uuid.New().String(),
		BikeID:     r.PathValue("bikeID"),
		CustomerID: p.SubjectID,
		Content:    req.Content,
		Rating:     req.Rating,
	}
	if err := rev.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.bikes.GetByID(r.Context(), rev.BikeID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.reviews.Create(r.Context(), rev); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, reviewResponse{
		ID:      rev.ID,
		Content: rev.Content,
		Rating:  rev.Rating,
	})
}

// ListReviews returns a bike's reviews newest first, with the derived rating
// statistics.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	bikeID := r.PathValue("bikeID")

	views, err := h.reviews.ListForBike(r.Context(), bikeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.reviews.Summarize(r.Context(), bikeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := reviewListResponse{
		Reviews:       make([]reviewResponse, len(views)),
		Count:         summary.Count,
		AverageRating: summary.AverageRating,
	}
	for i, v := range views {
		resp.Reviews[i] = reviewResponse{
			ID:        v.ID,
			Content:   v.Content,
			Rating:    v.Rating,
			Author:    toCustomerResponse(v.Author),
			CreatedAt: v.CreatedAt,
		}
	}
	writeData(w, r, http.StatusOK, resp)
}

// DeleteReview removes a review.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.Delete(r.Context(), r.PathValue("reviewID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nil)
}
