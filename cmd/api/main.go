// @title Pet Recovery API
// @version 1.0
// @description API de recuperación de mascotas: registro de dueños y mascotas, códigos QR y notificaciones de escaneo.

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"

	"pet-recovery/internal/adapters/geo/nominatim"
	idhttp "pet-recovery/internal/adapters/identity/httpapi"
	idlocal "pet-recovery/internal/adapters/identity/local"
	"pet-recovery/internal/adapters/storage/postgres"
	"pet-recovery/internal/config"
	"pet-recovery/internal/platform/logger"
	"pet-recovery/internal/ports/geo"
	"pet-recovery/internal/ports/identity"
	"pet-recovery/internal/router"
)

func main() {
	cfg := config.Load()
	appLog := logger.NewFromEnv()

	// Proveedor de identidad: gestionado si hay BaseURL, local si no.
	var provider identity.Provider
	if cfg.Identity.BaseURL != "" {
		p, err := idhttp.New(idhttp.Config{
			BaseURL:      cfg.Identity.BaseURL,
			APIKey:       cfg.Identity.APIKey,
			APIKeyHeader: cfg.Identity.APIKeyHeader,
			Timeout:      cfg.Identity.Timeout,
		})
		if err != nil {
			log.Fatalf("identity: %v", err)
		}
		provider = p
		appLog.Info("usando proveedor de identidad remoto", map[string]any{"base_url": cfg.Identity.BaseURL})
	} else {
		provider = idlocal.New(idlocal.Options{
			Secret:   cfg.Identity.LocalSecret,
			TokenTTL: cfg.Identity.LocalTokenTTL,
		})
		appLog.Info("usando proveedor de identidad local", nil)
	}

	var geocoder geo.Geocoder
	if cfg.Geocode.Enabled {
		g, err := nominatim.New(nominatim.Config{
			BaseURL: cfg.Geocode.BaseURL,
			Timeout: cfg.Geocode.Timeout,
		})
		if err != nil {
			log.Fatalf("geocoder: %v", err)
		}
		geocoder = g
	}

	opts := router.Options{
		Identity:        provider,
		Geocoder:        geocoder,
		Logger:          appLog,
		UploadDir:       cfg.Uploads.Dir,
		PublicBaseURL:   cfg.PublicBaseURL,
		FrontendBaseURL: cfg.FrontendBaseURL,
		GeocodeTimeout:  cfg.Geocode.Timeout,
	}

	if cfg.Database.DSN != "" {
		db, err := postgres.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer db.Close()
		opts.DB = db
		appLog.Info("usando storage postgres", nil)
	} else {
		appLog.Info("usando storage en memoria", nil)
	}

	r, err := router.NewRouter(opts)
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLog.Info("servidor escuchando", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLog.Info("apagando servidor", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown", map[string]any{"error": err.Error()})
	}
}
