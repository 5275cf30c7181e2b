package handler

import (
	"net/http"
	"time"

	"github.com/pedalworks/bike-rental/internal/domain/cart"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

type customerResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image,omitempty"`
}

func toCustomerResponse(c identity.Customer) customerResponse {
	return customerResponse{
		ID:           c.ID,
		Username:     c.Username,
		Email:        c.Email,
		ProfileImage: c.ProfileImage,
	}
}

type cartLineResponse struct {
	Bike     bikeSummaryResponse `json:"bike"`
	Quantity int                 `json:"quantity"`
}

type cartResponse struct {
	ID        string             `json:"id,omitempty"`
	Customer  customerResponse   `json:"customer"`
	Lines     []cartLineResponse `json:"lines"`
	Price     float64            `json:"price"`
	Deposit   float64            `json:"deposit"`
	Total     float64            `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (h *Handler) toCartResponse(v *cart.View) cartResponse {
	lines := make([]cartLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = cartLineResponse{
			Bike:     h.toBikeSummaryResponse(l.Bike),
			Quantity: l.Quantity,
		}
	}
	return cartResponse{
		ID:        v.ID,
		Customer:  toCustomerResponse(v.Customer),
		Lines:     lines,
		Price:     v.Price.InexactFloat64(),
		Deposit:   v.Deposit.InexactFloat64(),
		Total:     v.Total.InexactFloat64(),
		UpdatedAt: v.UpdatedAt,
	}
}

// GetCart returns the calling customer's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	view, err := h.cartService.Get(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, h.toCartResponse(view))
}

type addCartLineRequest struct {
	Quantity int `json:"quantity"`
}

// AddCartLine puts a bike into the cart, merging with an existing line for
// the same bike.
func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	req := addCartLineRequest{Quantity: 1}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := h.cartService.AddLine(r.Context(), p.SubjectID, r.PathValue("bikeID"), req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, r, p.SubjectID)
}

// IncrementCartLine raises an existing line's quantity by one.
func (h *Handler) IncrementCartLine(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	if err := h.cartService.IncrementLine(r.Context(), p.SubjectID, r.PathValue("bikeID")); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, r, p.SubjectID)
}

// DecrementCartLine lowers an existing line's quantity by one, removing the
// line and refunding the deposit when it hits zero.
func (h *Handler) DecrementCartLine(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	if err := h.cartService.DecrementLine(r.Context(), p.SubjectID, r.PathValue("bikeID")); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, r, p.SubjectID)
}

// RemoveCartLine deletes the line regardless of quantity.
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	if err := h.cartService.RemoveLine(r.Context(), p.SubjectID, r.PathValue("bikeID")); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, r, p.SubjectID)
}

// writeCart responds with the customer's post-mutation cart so clients don't
// need a follow-up read.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, customerID string) {
	view, err := h.cartService.Get(r.Context(), customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, h.toCartResponse(view))
}
