package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config junta toda la configuración del servicio, cargada de env vars.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Identity IdentityConfig
	Geocode  GeocodeConfig
	Uploads  UploadsConfig
	CORS     CORSConfig

	// PublicBaseURL es la base con la que se arman las URLs de fotos.
	// FrontendBaseURL es la base que codifican los QR (<base>/scan/<id>).
	PublicBaseURL   string
	FrontendBaseURL string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	// DSN vacío => repos en memoria (modo dev).
	DSN string
}

type IdentityConfig struct {
	// BaseURL vacío => proveedor local (bcrypt + JWT propio).
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration

	// Secret firma los tokens del proveedor local.
	LocalSecret   string
	LocalTokenTTL time.Duration
}

type GeocodeConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

type UploadsConfig struct {
	Dir string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load lee .env (si existe) y arma la configuración con defaults de dev.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("aviso: .env no encontrado: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Identity: IdentityConfig{
			BaseURL:       getEnv("IDENTITY_BASE_URL", ""),
			APIKey:        getEnv("IDENTITY_API_KEY", ""),
			APIKeyHeader:  getEnv("IDENTITY_API_KEY_HEADER", ""),
			Timeout:       getDurationEnv("IDENTITY_TIMEOUT", 5*time.Second),
			LocalSecret:   getEnv("AUTH_LOCAL_SECRET", "dev-secret"),
			LocalTokenTTL: getDurationEnv("AUTH_LOCAL_TOKEN_TTL", 24*time.Hour),
		},
		Geocode: GeocodeConfig{
			Enabled: getBoolEnv("GEOCODE_ENABLED", true),
			BaseURL: getEnv("GEOCODE_BASE_URL", ""),
			Timeout: getDurationEnv("GEOCODE_TIMEOUT", 3*time.Second),
		},
		Uploads: UploadsConfig{
			Dir: getEnv("UPLOADS_DIR", "uploads"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "https://miapp.com"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parts := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return def
	}
	return parts
}
