package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.dashboard.Dashboard(r.Context(), authorKey(r))
	s.countSample(view.Sample)

	writeJSON(w, http.StatusOK, dashboardDTO{
		sourceDTO: sourceOf(view.Source),
		Overview:  overviewOf(view.Overview),
		Recent:    rowsOf(view.Recent),
		Preview:   monthsOf(view.Preview),
	})
}

// handleAnalytics returns all monthly totals and the ?top categories
// (every category when absent or 0).
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	top, err := queryInt(r, "top")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := s.dashboard.Analytics(r.Context(), authorKey(r), top)
	s.countSample(view.Sample)

	writeJSON(w, http.StatusOK, analyticsDTO{
		sourceDTO:  sourceOf(view.Source),
		Months:     monthsOf(view.Months),
		Categories: categoriesOf(view.Categories),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	view := s.dashboard.Overview(r.Context(), authorKey(r))
	s.countSample(view.Sample)

	writeJSON(w, http.StatusOK, overviewViewDTO{
		sourceDTO:   sourceOf(view.Source),
		overviewDTO: overviewOf(view.Overview),
	})
}
