package handler

import (
	"net/http"
)

// GetWishlist returns the calling customer's saved bikes.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	bikes, err := h.wishlists.View(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]bikeSummaryResponse, len(bikes))
	for i, b := range bikes {
		resp[i] = h.toBikeSummaryResponse(b)
	}
	writeData(w, r, http.StatusOK, resp)
}

// AddToWishlist saves a bike for later. Saving a bike twice is a no-op.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	bikeID := r.PathValue("bikeID")
	if _, err := h.bikes.GetByID(r.Context(), bikeID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.wishlists.Add(r.Context(), p.SubjectID, bikeID); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

// RemoveFromWishlist drops a saved bike.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	if err := h.wishlists.Remove(r.Context(), p.SubjectID, r.PathValue("bikeID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nil)
}
