package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-recovery/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterProtectedRoutes(r chi.Router, svc *Service) {
	r.Route("/users/{userID}/notifications", func(nr chi.Router) {
		nr.Get("/", listHandler(svc))
		nr.Get("/count", countHandler(svc))
		nr.Get("/stats", statsHandler(svc))
		nr.Put("/mark-all-read", markAllReadHandler(svc))
		nr.Put("/{notificationID}", setReadHandler(svc))
	})
}

type notificationResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	PetName      string    `json:"pet_name,omitempty"`
	Message      string    `json:"message"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	LocationInfo string    `json:"location_info,omitempty"`
	UserMessage  string    `json:"user_message,omitempty"`
	Type         string    `json:"type"`
	Leido        bool      `json:"leido"`
	CreatedAt    time.Time `json:"created_at"`
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

// listHandler godoc
// @Summary Listar notificaciones
// @Description Notificaciones del dueño, más recientes primero. Con ?unread=true solo las no leídas.
// @Tags notifications
// @Produce json
// @Param userID path string true "ID del usuario autenticado"
// @Param unread query bool false "solo no leídas"
// @Success 200 {object} listResponse
// @Failure 403 {string} string "No autorizado"
// @Router /users/{userID}/notifications [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		onlyUnread := r.URL.Query().Get("unread") == "true"

		items, err := svc.List(r.Context(), userID, onlyUnread)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error al obtener notificaciones")
			return
		}
		unread, err := svc.CountUnread(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error al obtener notificaciones")
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toResponse(n))
		}
		writeJSON(w, http.StatusOK, listResponse{
			Notifications: out,
			UnreadCount:   unread,
		})
	}
}

func countHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		unread, err := svc.CountUnread(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error al obtener el conteo")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread_count": unread})
	}
}

type statsResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
	Scans  int `json:"scans"`
	Today  int `json:"today"`
}

func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		st, err := svc.ComputeStats(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error al calcular estadísticas")
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Total:  st.Total,
			Unread: st.Unread,
			Scans:  st.Scans,
			Today:  st.Today,
		})
	}
}

// markAllReadHandler godoc
// @Summary Marcar todas como leídas
// @Description Marca en un solo batch todas las no leídas del dueño. Devuelve cuántas cambió; cero es un éxito.
// @Tags notifications
// @Produce json
// @Param userID path string true "ID del usuario autenticado"
// @Success 200 {object} map[string]any
// @Failure 403 {string} string "No autorizado"
// @Router /users/{userID}/notifications/mark-all-read [put]
func markAllReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		count, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error al marcar notificaciones")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Notificaciones marcadas como leídas",
			"count":   count,
		})
	}
}

type setReadRequest struct {
	Leido bool `json:"leido"`
}

func setReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		var req setReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		n, err := svc.SetRead(r.Context(), userID, chi.URLParam(r, "notificationID"), req.Leido)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "Notificación no encontrada")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error al actualizar la notificación")
			return
		}

		writeJSON(w, http.StatusOK, toResponse(n))
	}
}

func authorizeOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return "", false
	}

	userID := chi.URLParam(r, "userID")
	if userID != claims.UserID {
		writeError(w, http.StatusForbidden, "No autorizado")
		return "", false
	}
	return userID, true
}

func toResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		PetID:        n.PetID,
		PetName:      n.PetName,
		Message:      n.Message,
		Latitude:     n.Latitude,
		Longitude:    n.Longitude,
		LocationInfo: n.LocationInfo,
		UserMessage:  n.UserMessage,
		Type:         string(n.Kind),
		Leido:        n.Read,
		CreatedAt:    n.CreatedAt,
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
