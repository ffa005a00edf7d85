package uploads

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/uploads/{filename}", serveAssetHandler(store))
}

// serveAssetHandler godoc
// @Summary Servir imagen subida
// @Tags uploads
// @Produce png
// @Param filename path string true "nombre de archivo generado al crear la mascota"
// @Success 200 {file} binary
// @Failure 404 {string} string "archivo no encontrado"
// @Router /uploads/{filename} [get]
func serveAssetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := store.Open(chi.URLParam(r, "filename"))
		if err != nil {
			http.Error(w, "archivo no encontrado", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, path)
	}
}
