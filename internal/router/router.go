package router

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"time"

	mem "pet-recovery/internal/adapters/storage/memory"
	pg "pet-recovery/internal/adapters/storage/postgres"
	"pet-recovery/internal/domain/notifications"
	"pet-recovery/internal/domain/pets"
	"pet-recovery/internal/domain/scans"
	"pet-recovery/internal/domain/uploads"
	"pet-recovery/internal/domain/users"
	"pet-recovery/internal/middleware"
	"pet-recovery/internal/platform/logger"
	"pet-recovery/internal/ports/geo"
	"pet-recovery/internal/ports/identity"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Identity identity.Provider // requerido
	Geocoder geo.Geocoder      // puede ser nil (sin reverse geocoding)
	Logger   logger.Logger     // puede ser nil

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	UploadDir       string
	PublicBaseURL   string
	FrontendBaseURL string

	// Los tests bajan estas esperas a casi cero.
	StoreRetryDelay  time.Duration
	ExistsRetryDelay time.Duration
	NotifyRetryDelay time.Duration
	GeocodeTimeout   time.Duration
}

func NewRouter(opts Options) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.Identity))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	var (
		userRepo  users.Repository
		petRepo   pets.Repository
		scanRepo  scans.Repository
		notifRepo notifications.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		userRepo = pg.NewUsersRepo(db)
		petRepo = pg.NewPetsRepo(db)
		scanRepo = pg.NewScansRepo(db)
		notifRepo = pg.NewNotificationsRepo(db)
	} else {
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
		scanRepo = mem.NewScanRepo()
		notifRepo = mem.NewNotificationRepo()
	}

	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	photos, err := uploads.NewStore(uploadDir, opts.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, opts.Identity, users.ServiceOptions{
		Logger:      opts.Logger,
		VerifyDelay: opts.StoreRetryDelay,
		ExistsDelay: opts.ExistsRetryDelay,
	})
	petsSvc := pets.NewService(petRepo, photos, pets.ServiceOptions{
		FrontendBaseURL: opts.FrontendBaseURL,
		RetryDelay:      opts.StoreRetryDelay,
	})
	notifSvc := notifications.NewService(notifRepo)
	scansSvc := scans.NewService(scanRepo, petsSvc, notifSvc, scans.ServiceOptions{
		Geocoder:         opts.Geocoder,
		Logger:           opts.Logger,
		NotifyRetryDelay: opts.NotifyRetryDelay,
		GeocodeTimeout:   opts.GeocodeTimeout,
	})

	// Rutas públicas
	users.RegisterPublicRoutes(r, usersSvc, notifSvc)
	pets.RegisterPublicRoutes(r, petsSvc, usersSvc)
	scans.RegisterPublicRoutes(r, scansSvc)
	uploads.RegisterRoutes(r, photos)

	// Rutas protegidas: token válido + perfil existente.
	gate := func(ctx context.Context, userID string) error {
		err := usersSvc.Exists(ctx, userID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, users.ErrNotFound):
			return middleware.ErrProfileNotFound
		default:
			return middleware.ErrStoreUnavailable
		}
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireUser(gate))

		users.RegisterProtectedRoutes(pr, usersSvc)
		pets.RegisterProtectedRoutes(pr, petsSvc)
		scans.RegisterProtectedRoutes(pr, scansSvc)
		notifications.RegisterProtectedRoutes(pr, notifSvc)
	})

	return r, nil
}
