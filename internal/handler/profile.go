package handler

import (
	"net/http"

	"github.com/pedalworks/bike-rental/internal/domain/auth"
)

// GetProfile returns the public profile of the identity behind the caller's
// API key: a customer summary for customer keys, a seller summary for seller
// keys.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	if p.Role == auth.RoleSeller {
		s, err := h.identities.GetSeller(r.Context(), p.SubjectID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, r, http.StatusOK, toSellerResponse(*s))
		return
	}

	c, err := h.identities.GetCustomer(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, toCustomerResponse(*c))
}
