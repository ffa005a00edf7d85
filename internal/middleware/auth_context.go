package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pet-recovery/internal/ports/identity"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// TokenVerifier es lo único que el middleware necesita del proveedor
// de identidad.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Claims, error)
}

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: el header X-Debug-User-ID setea claims.
// - Si no hay claims el request sigue igual; RequireUser decide el corte.
func AuthContext(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					ctx := context.WithValue(r.Context(), claimsKey, identity.Claims{UserID: uid})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// no cortamos aquí; las rutas públicas ignoran el header
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Errores que el ProfileGate devuelve ya clasificados.
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ProfileGate confirma que el perfil del token exista en el store.
// El router lo arma sobre el servicio de usuarios, que ya reintenta
// lecturas transitorias.
type ProfileGate func(ctx context.Context, userID string) error

// RequireUser corta con 401 cuando no hay identidad autenticada y,
// si hay gate, exige que el perfil exista.
func RequireUser(gate ProfileGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || strings.TrimSpace(claims.UserID) == "" {
				writeError(w, http.StatusUnauthorized, "No autenticado")
				return
			}

			if gate != nil {
				switch err := gate(r.Context(), claims.UserID); {
				case err == nil:
				case errors.Is(err, ErrProfileNotFound):
					writeError(w, http.StatusUnauthorized, "Perfil no encontrado")
					return
				default:
					writeError(w, http.StatusInternalServerError, "Servicio no disponible")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetClaims(ctx context.Context) (identity.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return identity.Claims{}, false
	}
	c, ok := v.(identity.Claims)
	return c, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
