package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-recovery/internal/middleware"
	"pet-recovery/internal/ports/identity"

	"github.com/go-chi/chi/v5"
)

// UnreadCounter entrega el conteo de notificaciones sin leer para la
// respuesta de login. Lo implementa el servicio de notificaciones.
type UnreadCounter interface {
	CountUnread(ctx context.Context, ownerID string) (int, error)
}

func RegisterPublicRoutes(r chi.Router, svc *Service, unread UnreadCounter) {
	r.Post("/register", registerHandler(svc))
	r.Post("/login", loginHandler(svc, unread))
}

func RegisterProtectedRoutes(r chi.Router, svc *Service) {
	r.Get("/users/{userID}/profile", getProfileHandler(svc))
	r.Put("/users/{userID}/profile", updateProfileHandler(svc))
	r.Put("/users/{userID}/password", changePasswordHandler(svc))
}

type registerRequest struct {
	Name     string `json:"name"`
	Nombre   string `json:"nombre"` // el frontend manda "nombre"
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
	Token   string `json:"token"`
	Nombre  string `json:"nombre"`
	Email   string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	Nombre      string `json:"nombre"`
	Email       string `json:"email"`
	UnreadCount int    `json:"unread_count"`
}

type profileResponse struct {
	UserID    string    `json:"user_id"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea la cuenta en el proveedor de identidad y el perfil en el store. Si el perfil no se confirma, la cuenta se revierte.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "nombre, email y password"
// @Success 201 {object} registerResponse
// @Failure 400 {string} string "faltan campos / contraseña débil"
// @Failure 409 {string} string "email ya registrado"
// @Router /register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = strings.TrimSpace(req.Nombre)
		}

		p, token, err := svc.Register(r.Context(), name, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Faltan campos requeridos")
			case errors.Is(err, identity.ErrEmailInUse):
				writeError(w, http.StatusConflict, "El correo ya está registrado")
			case errors.Is(err, identity.ErrWeakPassword):
				writeError(w, http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
			default:
				writeError(w, http.StatusInternalServerError, "No se pudo registrar el usuario")
			}
			return
		}

		writeJSON(w, http.StatusCreated, registerResponse{
			Message: "Usuario registrado correctamente",
			UID:     p.ID,
			Token:   token,
			Nombre:  p.Name,
			Email:   p.Email,
		})
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "email y password"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "Credenciales inválidas"
// @Failure 403 {string} string "Cuenta deshabilitada"
// @Router /login [post]
func loginHandler(svc *Service, unread UnreadCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		p, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput), errors.Is(err, identity.ErrInvalidCredential):
				writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
			case errors.Is(err, identity.ErrAccountDisabled):
				writeError(w, http.StatusForbidden, "Cuenta deshabilitada")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Perfil no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "No se pudo iniciar sesión")
			}
			return
		}

		// el conteo de no leídas es cortesía del login: si falla, va en cero
		count := 0
		if unread != nil {
			if n, err := unread.CountUnread(r.Context(), p.ID); err == nil {
				count = n
			}
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Token:       token,
			UserID:      p.ID,
			Nombre:      p.Name,
			Email:       p.Email,
			UnreadCount: count,
		})
	}
}

func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		p, err := svc.Get(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "Perfil no encontrado")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error al obtener el perfil")
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

type updateProfileRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// updateProfileHandler godoc
// @Summary Actualizar perfil
// @Description Cambia email y/o teléfono. El cambio de email puede chocar con otra cuenta (409).
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "ID del usuario autenticado"
// @Param payload body updateProfileRequest true "email y phone"
// @Success 200 {object} profileResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "email en uso"
// @Router /users/{userID}/profile [put]
func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		p, err := svc.Update(r.Context(), userID, UpdateInput{
			Email: req.Email,
			Phone: req.Phone,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Perfil no encontrado")
			case errors.Is(err, identity.ErrEmailInUse):
				writeError(w, http.StatusConflict, "El correo ya está en uso")
			default:
				writeError(w, http.StatusInternalServerError, "Error al actualizar el perfil")
			}
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeOwner(w, r)
		if !ok {
			return
		}

		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		err := svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidCredential):
				writeError(w, http.StatusUnauthorized, "Contraseña actual incorrecta")
			case errors.Is(err, identity.ErrWeakPassword):
				writeError(w, http.StatusBadRequest, "La nueva contraseña debe tener al menos 6 caracteres")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Perfil no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error al cambiar la contraseña")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Contraseña actualizada correctamente",
		})
	}
}

// authorizeOwner exige que el {userID} del path sea el del token.
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

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{
		UserID:    p.ID,
		Nombre:    p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

// writeJSON/writeError están duplicados a propósito en los handlers de
// cada módulo, para no crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
