package scans

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-recovery/internal/domain/notifications"
	"pet-recovery/internal/domain/pets"
	"pet-recovery/internal/platform/logger"
	"pet-recovery/internal/platform/retry"
	"pet-recovery/internal/ports/geo"
)

var ErrInvalidInput = errors.New("invalid input")

const notifyAttempts = 3

type Service struct {
	repo  Repository
	pets  *pets.Service
	notif *notifications.Service
	geo   geo.Geocoder // puede ser nil
	log   logger.Logger

	now         func() time.Time
	notifyDelay time.Duration
	geoTimeout  time.Duration
}

type ServiceOptions struct {
	Geocoder geo.Geocoder
	Logger   logger.Logger

	NotifyRetryDelay time.Duration // default 500ms
	GeocodeTimeout   time.Duration // default 3s
}

func NewService(repo Repository, petsSvc *pets.Service, notifSvc *notifications.Service, opts ServiceOptions) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	notifyDelay := opts.NotifyRetryDelay
	if notifyDelay == 0 {
		notifyDelay = 500 * time.Millisecond
	}
	geoTimeout := opts.GeocodeTimeout
	if geoTimeout <= 0 {
		geoTimeout = 3 * time.Second
	}
	return &Service{
		repo:        repo,
		pets:        petsSvc,
		notif:       notifSvc,
		geo:         opts.Geocoder,
		log:         log,
		now:         time.Now,
		notifyDelay: notifyDelay,
		geoTimeout:  geoTimeout,
	}
}

type RecordInput struct {
	Latitude  float64
	Longitude float64
	Message   string
}

// Result distingue "registrado y notificado" de "registrado sin dueño
// conocido". El segundo caso no es un error: la ubicación ya quedó.
type Result struct {
	Event    ScanEvent
	Notified bool
}

// Record registra el escaneo incondicionalmente y después intenta
// notificar al dueño. Todo lo que sigue al append es best-effort: ni
// la resolución de dueño, ni el geocoding, ni la escritura del aviso
// pueden hacer fallar la llamada.
func (s *Service) Record(ctx context.Context, petID string, in RecordInput) (Result, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Result{}, ErrInvalidInput
	}

	e := ScanEvent{
		ID:        uuid.NewString(),
		PetID:     petID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: s.now(),
	}

	if err := s.repo.Append(ctx, e); err != nil {
		return Result{}, err
	}

	// resolución de dueño por lookup directo del id (el id de mascota
	// es único globalmente; no hay barrido de perfiles)
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if !errors.Is(err, pets.ErrNotFound) {
			s.log.Warn("no se pudo resolver el dueño del escaneo", map[string]any{
				"pet_id": petID,
				"err":    err.Error(),
			})
		}
		return Result{Event: e, Notified: false}, nil
	}

	n := s.buildNotification(ctx, p, e)

	err = retry.Do(ctx, notifyAttempts, s.notifyDelay, func() error {
		_, createErr := s.notif.Create(ctx, n)
		return createErr
	})
	if err != nil {
		// la ubicación ya es durable; el aviso perdido solo se loguea
		s.log.Error("no se pudo escribir la notificación de escaneo", map[string]any{
			"pet_id":   petID,
			"owner_id": p.OwnerUserID,
			"err":      err.Error(),
		})
		return Result{Event: e, Notified: false}, nil
	}

	return Result{Event: e, Notified: true}, nil
}

func (s *Service) buildNotification(ctx context.Context, p pets.Pet, e ScanEvent) notifications.Notification {
	place := s.reversePlace(ctx, e.Latitude, e.Longitude)

	where := place
	if where == "" {
		where = fmt.Sprintf("%.6f, %.6f", e.Latitude, e.Longitude)
	}
	hora := e.CreatedAt.Local().Format("15:04")

	return notifications.Notification{
		OwnerUserID:  p.OwnerUserID,
		PetID:        p.ID,
		PetName:      p.Name,
		Message:      fmt.Sprintf("Tu mascota %s fue escaneada cerca de %s a las %s", p.Name, where, hora),
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		LocationInfo: place,
		UserMessage:  e.Message,
		Kind:         notifications.KindPetScanned,
		CreatedAt:    e.CreatedAt,
	}
}

// reversePlace degrada en silencio: sin geocoder, con timeout o con
// error, devuelve vacío y el mensaje cae a coordenadas crudas.
func (s *Service) reversePlace(ctx context.Context, lat, lng float64) string {
	if s.geo == nil {
		return ""
	}

	gctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()

	place, err := s.geo.Reverse(gctx, lat, lng)
	if err != nil {
		s.log.Debug("reverse geocode falló", map[string]any{"err": err.Error()})
		return ""
	}
	return place
}

// Location es un evento de escaneo visto desde el dueño.
type Location struct {
	ScanEvent
	PetName string
}

// ListByOwner junta los escaneos de todas las mascotas del dueño,
// más recientes primero.
func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Location, error) {
	owned, err := s.pets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	out := make([]Location, 0)
	for _, p := range owned {
		events, err := s.repo.ListByPet(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			out = append(out, Location{ScanEvent: e, PetName: p.Name})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
