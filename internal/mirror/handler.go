package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/go-chi/chi/v5"
)

// Register mounts the mirror's read API. Lookups are served straight
// from the Redis hash, never from the relational store.
func (s *Service) Register(r *chi.Mux) {
	r.Get("/mirror/items/{id}", s.getItem)
}

func (s *Service) getItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	doc, err := s.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrItemNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
