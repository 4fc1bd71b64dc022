package http

import (
	"net/http"
)

// handleCheckSession validates the presented key. The key may also be sent
// as {"key": "..."} for clients that cannot set headers.
func (s *Server) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	key := authorKey(r)
	if key == "" {
		p := NewRequestBodyParser(w, r)
		if err := p.Parse(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		key = p.Get("key")
	}

	session := s.gate.Check(r.Context(), key)
	writeJSON(w, http.StatusOK, sessionDTO{Valid: session.Valid, ExpiresAt: session.ExpiresAt})
}

func (s *Server) handleForgetSession(w http.ResponseWriter, r *http.Request) {
	if key := authorKey(r); key != "" {
		s.gate.Forget(key)
	}
	w.WriteHeader(http.StatusNoContent)
}
