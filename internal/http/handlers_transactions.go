package http

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"billbook/internal/adapters"
	"billbook/internal/core"
	"billbook/internal/services"
)

// handleListTransactions returns every row, or the newest ?limit rows with
// relative date labels.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var view services.RowsView
	if limit > 0 {
		view = s.dashboard.Recent(r.Context(), authorKey(r), limit)
	} else {
		view = s.dashboard.Page(r.Context(), authorKey(r))
	}
	s.countSample(view.Sample)

	writeJSON(w, http.StatusOK, rowsDTO{
		sourceDTO:    sourceOf(view.Source),
		Transactions: rowsOf(view.Rows),
		Total:        core.FormatAmount(view.Total()),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.transactions.Create(r.Context(), authorKey(r), adapters.DecodeRow(p.Fields()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.writesTotal, 1)

	w.Header().Set("Location", "/api/v1/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, transactionOf(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.transactions.Update(r.Context(), authorKey(r), chi.URLParam(r, "id"), adapters.DecodePatch(p.Fields()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.writesTotal, 1)

	writeJSON(w, http.StatusOK, transactionOf(tx))
}
