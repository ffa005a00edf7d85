package scans

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-recovery/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterPublicRoutes(r chi.Router, svc *Service) {
	// Quien encuentra la mascota escanea sin cuenta: la ruta es pública.
	r.Post("/scan/{petID}", recordScanHandler(svc))
}

func RegisterProtectedRoutes(r chi.Router, svc *Service) {
	r.Get("/users/{userID}/locations", listLocationsHandler(svc))
}

type recordScanRequest struct {
	// Punteros para distinguir "0.0" de "no enviado".
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Message   string   `json:"message"`
}

type locationResponse struct {
	PetID     string    `json:"pet_id"`
	PetName   string    `json:"pet_name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// recordScanHandler godoc
// @Summary Registrar escaneo de QR
// @Description Registra la ubicación reportada por quien escaneó el código. Siempre responde 200 si las coordenadas vienen, haya o no dueño que notificar.
// @Tags scan
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota escaneada"
// @Param payload body recordScanRequest true "latitude y longitude obligatorios; message opcional"
// @Success 200 {object} map[string]string
// @Failure 400 {string} string "latitude y longitude son requeridos"
// @Router /scan/{petID} [post]
func recordScanHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		if req.Latitude == nil || req.Longitude == nil {
			writeError(w, http.StatusBadRequest, "latitude y longitude son requeridos")
			return
		}

		_, err := svc.Record(r.Context(), chi.URLParam(r, "petID"), RecordInput{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Message:   req.Message,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "No se pudo registrar la ubicación")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Ubicación registrada correctamente",
		})
	}
}

func listLocationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		userID := chi.URLParam(r, "userID")
		if userID != claims.UserID {
			writeError(w, http.StatusForbidden, "No autorizado")
			return
		}

		items, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "No se pudieron obtener las ubicaciones")
			return
		}

		out := make([]locationResponse, 0, len(items))
		for _, l := range items {
			out = append(out, locationResponse{
				PetID:     l.PetID,
				PetName:   l.PetName,
				Latitude:  l.Latitude,
				Longitude: l.Longitude,
				Message:   l.Message,
				CreatedAt: l.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
