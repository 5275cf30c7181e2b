package handler

import (
	"net/http"
)

type dashboardResponse struct {
	TotalCustomers int     `json:"total_customers"`
	DailyTotal     float64 `json:"daily_total"`
	GrowthPercent  int     `json:"growth_percent"`
	BikesInWork    int     `json:"bikes_in_work"`
}

// DashboardSummary returns the calling seller's sales metrics.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	summary, err := h.dashboards.Summarize(r.Context(), p.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, r, http.StatusOK, dashboardResponse{
		TotalCustomers: summary.TotalCustomers,
		DailyTotal:     summary.DailyTotal.InexactFloat64(),
		GrowthPercent:  summary.GrowthPercent,
		BikesInWork:    summary.BikesInWork,
	})
}
