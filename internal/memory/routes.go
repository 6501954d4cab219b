package memory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the human-feedback and memory inspection endpoints
// on the given router. This is the surface the external annotation UI calls;
// feedback recorded here only affects future decisions via the bias penalty.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/feedback/confirm", recordHandler(store.RecordConfirmation))
	r.Post("/api/feedback/correct", recordHandler(store.RecordCorrection))
	r.Get("/api/memory", readHandler(store))
	r.Get("/api/memory/penalty/{damageType}", penaltyHandler(store))
}

type feedbackRequest struct {
	DamageType string `json:"damage_type"`
	Image      string `json:"image,omitempty"`
}

func recordHandler(record func(damageType, image string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.DamageType == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "damage_type is required"})
			return
		}
		if err := record(req.DamageType, req.Image); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
	}
}

func readHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 200
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		records, err := store.ReadMemory(limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if records == nil {
			records = []Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func penaltyHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		damageType := chi.URLParam(r, "damageType")
		penalty, err := store.BiasPenalty(damageType)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"damage_type": damageType,
			"penalty":     penalty,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
