package handler

import (
	"net/http"
	"time"

	"github.com/pedalworks/bike-rental/internal/domain/order"
)

type orderLineResponse struct {
	Bike     bikeSummaryResponse `json:"bike"`
	Quantity int                 `json:"quantity"`
	Months   int                 `json:"months"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Lines     []orderLineResponse `json:"lines"`
	Address   string              `json:"address"`
	Price     float64             `json:"price"`
	Deposit   float64             `json:"deposit"`
	Total     float64             `json:"total"`
	Payment   string              `json:"payment"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type customerOrderResponse struct {
	orderResponse
	Seller sellerResponse `json:"seller"`
}

type sellerOrderResponse struct {
	orderResponse
	Customer customerResponse `json:"customer"`
}

type placedOrderResponse struct {
	ID         string  `json:"id"`
	Price      float64 `json:"price"`
	Deposit    float64 `json:"deposit"`
	Total      float64 `json:"total"`
	Payment    string  `json:"payment"`
	Status     string  `json:"status"`
	PaymentURL string  `json:"payment_url,omitempty"`
}

func (h *Handler) toOrderLineResponses(lines []order.ViewLine) []orderLineResponse {
	resp := make([]orderLineResponse, len(lines))
	for i, l := range lines {
		resp[i] = orderLineResponse{
			Bike:     h.toBikeSummaryResponse(l.Bike),
			Quantity: l.Quantity,
			Months:   l.Months,
		}
	}
	return resp
}

func (h *Handler) toCustomerOrderResponse(v *order.CustomerView) customerOrderResponse {
	return customerOrderResponse{
		orderResponse: orderResponse{
			ID:        v.ID,
			Lines:     h.toOrderLineResponses(v.Lines),
			Address:   v.Address,
			Price:     v.Price.InexactFloat64(),
			Deposit:   v.Deposit.InexactFloat64(),
			Total:     v.Total.InexactFloat64(),
			Payment:   string(v.Payment),
			Status:    string(v.Status),
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		},
		Seller: toSellerResponse(v.Seller),
	}
}

type placeOrderRequest struct {
	Address  string `json:"address"`
	Payment  string `json:"payment"`
	Quantity int    `json:"quantity"`
	Months   int    `json:"months"`
}

// PlaceOrder rents a bike: prices the rental, reserves stock, creates a
// payment session for card payments, and records the order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Months == 0 {
		req.Months = 1
	}

	result, err := h.orderService.Place(r.Context(), order.PlaceRequest{
		CustomerID: p.SubjectID,
		BikeID:     r.PathValue("bikeID"),
		Address:    req.Address,
		Payment:    order.PaymentMethod(req.Payment),
		Quantity:   req.Quantity,
		Months:     req.Months,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, r, http.StatusCreated, placedOrderResponse{
		ID:         result.Order.ID,
		Price:      result.Order.Price.InexactFloat64(),
		Deposit:    result.Order.Deposit.InexactFloat64(),
		Total:      result.Order.Total.InexactFloat64(),
		Payment:    string(result.Order.Payment),
		Status:     string(result.Order.Status),
		PaymentURL: result.PaymentURL,
	})
}

// ListOrders returns the calling customer's orders, newest activity first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	views, err := h.orderService.ListForCustomer(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]customerOrderResponse, len(views))
	for i := range views {
		resp[i] = h.toCustomerOrderResponse(&views[i])
	}
	writeData(w, r, http.StatusOK, resp)
}

// GetOrder returns one order with lines and seller resolved.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orderService.Get(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, h.toCustomerOrderResponse(view))
}

// CancelOrder moves the order to CANCELLED and returns its stock to the
// ledger.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.Cancel(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, placedOrderResponse{
		ID:      o.ID,
		Price:   o.Price.InexactFloat64(),
		Deposit: o.Deposit.InexactFloat64(),
		Total:   o.Total.InexactFloat64(),
		Payment: string(o.Payment),
		Status:  string(o.Status),
	})
}

// DeliverOrder marks a processing order as delivered.
func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.MarkDelivered(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, placedOrderResponse{
		ID:      o.ID,
		Price:   o.Price.InexactFloat64(),
		Deposit: o.Deposit.InexactFloat64(),
		Total:   o.Total.InexactFloat64(),
		Payment: string(o.Payment),
		Status:  string(o.Status),
	})
}

// ListSellerOrders returns the calling seller's non-cancelled orders, newest
// activity first.
func (h *Handler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	views, err := h.orderService.ListForSeller(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]sellerOrderResponse, len(views))
	for i, v := range views {
		resp[i] = sellerOrderResponse{
			orderResponse: orderResponse{
				ID:        v.ID,
				Lines:     h.toOrderLineResponses(v.Lines),
				Address:   v.Address,
				Price:     v.Price.InexactFloat64(),
				Deposit:   v.Deposit.InexactFloat64(),
				Total:     v.Total.InexactFloat64(),
				Payment:   string(v.Payment),
				Status:    string(v.Status),
				CreatedAt: v.CreatedAt,
				UpdatedAt: v.UpdatedAt,
			},
			Customer: toCustomerResponse(v.Customer),
		}
	}
	writeData(w, r, http.StatusOK, resp)
}
