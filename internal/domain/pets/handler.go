package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-recovery/internal/domain/uploads"
	"pet-recovery/internal/domain/users"
	"pet-recovery/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterProtectedRoutes(r chi.Router, svc *Service) {
	r.Post("/users/{userID}/pets", createPetHandler(svc))
	r.Get("/users/{userID}/pets", listPetsHandler(svc))
}

func RegisterPublicRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	// Página pública "mascota encontrada": sin auth, el escáner es anónimo.
	r.Get("/pets/{petID}", getPublicPetHandler(svc, usersSvc))
}

type createPetRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"` // data URL opcional
}

type createPetResponse struct {
	Message      string `json:"message"`
	PetID        string `json:"pet_id"`
	QRContent    string `json:"qr_content"`
	QRCodeBase64 string `json:"qr_code_base64"` // truncado en la respuesta
	Photo        string `json:"photo,omitempty"`
}

type petResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo,omitempty"`
	QRContent string    `json:"qr_content"`
	CreatedAt time.Time `json:"created_at"`
}

type ownerContact struct {
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}

type publicPetResponse struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Photo string        `json:"photo,omitempty"`
	Owner *ownerContact `json:"owner,omitempty"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description Crea la mascota del usuario autenticado, genera su código QR y opcionalmente guarda la foto (data URL). La escritura se confirma con relectura.
// @Tags pets
// @Accept json
// @Produce json
// @Param userID path string true "ID del dueño (debe coincidir con el token)"
// @Param payload body createPetRequest true "name obligatorio; photo opcional como data URL"
// @Success 201 {object} createPetResponse
// @Failure 400 {string} string "Falta el nombre de la mascota"
// @Failure 403 {string} string "No autorizado"
// @Failure 415 {string} string "Tipo de imagen no soportado"
// @Router /users/{userID}/pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		p, err := svc.Create(r.Context(), userID, CreateInput{
			Name:         req.Name,
			PhotoDataURL: req.Photo,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingName):
				writeError(w, http.StatusBadRequest, "Falta el nombre de la mascota")
			case errors.Is(err, uploads.ErrUnsupportedType):
				writeError(w, http.StatusUnsupportedMediaType, "Tipo de imagen no soportado")
			default:
				writeError(w, http.StatusInternalServerError, "No se pudo agregar la mascota")
			}
			return
		}

		writeJSON(w, http.StatusCreated, createPetResponse{
			Message:      "Mascota añadida exitosamente",
			PetID:        p.ID,
			QRContent:    p.QRContent,
			QRCodeBase64: truncate(p.QRCodeBase64, 50),
			Photo:        p.PhotoURL,
		})
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "No se pudieron cargar las mascotas")
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPublicPetHandler godoc
// @Summary Perfil público de mascota encontrada
// @Description Devuelve la mascota y el contacto del dueño. Lo usa la página de escaneo, sin autenticación.
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} publicPetResponse
// @Failure 404 {string} string "mascota no encontrada"
// @Router /pets/{petID} [get]
func getPublicPetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		resp := publicPetResponse{
			ID:    p.ID,
			Name:  p.Name,
			Photo: p.PhotoURL,
		}

		// contacto del dueño best-effort: la mascota se muestra igual
		if owner, err := usersSvc.Get(r.Context(), p.OwnerUserID); err == nil {
			resp.Owner = &ownerContact{
				Nombre: owner.Name,
				Email:  owner.Email,
				Phone:  owner.Phone,
			}
		}

		writeJSON(w, http.StatusOK, resp)
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

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		Name:      p.Name,
		Photo:     p.PhotoURL,
		QRContent: p.QRContent,
		CreatedAt: p.CreatedAt,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
