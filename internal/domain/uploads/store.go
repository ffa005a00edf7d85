package uploads

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType: el payload no es una imagen de la lista permitida.
	ErrUnsupportedType = errors.New("unsupported image type")

	ErrNotFound = errors.New("asset not found")
)

// Extensión por media type permitido. Todo lo demás se rechaza.
var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Store persiste fotos de mascotas en disco local y las expone por
// nombre de archivo bajo publicBase.
type Store struct {
	dir        string
	publicBase string
}

func NewStore(dir, publicBaseURL string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: mkdir %s: %w", dir, err)
	}
	return &Store{
		dir:        dir,
		publicBase: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

// SaveDataURL decodifica un data URL (data:image/png;base64,...),
// valida el tipo contra la lista permitida y persiste los bytes bajo
// un nombre único. Devuelve la URL pública del asset.
func (s *Store) SaveDataURL(dataURL string) (string, error) {
	mediaType, data, err := parseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	ext, ok := allowedTypes[mediaType]
	if !ok {
		return "", ErrUnsupportedType
	}

	// el contenido real debe coincidir con lo declarado
	if sniffed := http.DetectContentType(data); sniffed != mediaType {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("uploads: write %s: %w", name, err)
	}

	return s.publicBase + "/uploads/" + name, nil
}

// Open valida el nombre y devuelve la ruta local del asset.
func (s *Store) Open(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	// sin paths relativos ni separadores: solo nombres generados por SaveDataURL
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", ErrNotFound
	}

	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

func parseDataURL(s string) (mediaType string, data []byte, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrUnsupportedType
	}

	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, ErrUnsupportedType
	}

	mediaType, encoding, _ := strings.Cut(meta, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		return "", nil, ErrUnsupportedType
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrUnsupportedType
	}
	if len(data) == 0 {
		return "", nil, ErrUnsupportedType
	}
	return mediaType, data, nil
}
