package pets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"pet-recovery/internal/domain/uploads"
	"pet-recovery/internal/platform/retry"
)

var (
	// ErrMissingName: el nombre es el único campo obligatorio.
	ErrMissingName = errors.New("missing pet name")

	ErrWriteNotConfirmed = errors.New("write not confirmed")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

const (
	writeVerifyAttempts = 3
	listRetryAttempts   = 3

	qrImageSize = 256
)

type Service struct {
	repo   Repository
	photos *uploads.Store

	// base del frontend público; el QR codifica <base>/scan/<petID>
	frontendBase string

	now        func() time.Time
	retryDelay time.Duration
}

type ServiceOptions struct {
	FrontendBaseURL string
	RetryDelay      time.Duration // default 500ms
}

func NewService(repo Repository, photos *uploads.Store, opts ServiceOptions) *Service {
	base := strings.TrimRight(strings.TrimSpace(opts.FrontendBaseURL), "/")
	if base == "" {
		base = "https://miapp.com"
	}
	delay := opts.RetryDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	return &Service{
		repo:         repo,
		photos:       photos,
		frontendBase: base,
		now:          time.Now,
		retryDelay:   delay,
	}
}

type CreateInput struct {
	Name string

	// PhotoDataURL es opcional: data:image/...;base64,...
	PhotoDataURL string
}

// Create registra la mascota: valida la foto (si viene), genera el QR
// con la URL de escaneo y escribe con confirmación de visibilidad.
// Si la foto es de un tipo no permitido no se persiste nada.
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrMissingName
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Pet{}, ErrMissingName
	}

	photoURL := ""
	if strings.TrimSpace(in.PhotoDataURL) != "" {
		var err error
		photoURL, err = s.photos.SaveDataURL(in.PhotoDataURL)
		if err != nil {
			return Pet{}, err
		}
	}

	id := uuid.NewString()
	qrContent := s.frontendBase + "/scan/" + id

	png, err := qrcode.Encode(qrContent, qrcode.Medium, qrImageSize)
	if err != nil {
		return Pet{}, fmt.Errorf("render qr: %w", err)
	}

	p := Pet{
		ID:           id,
		OwnerUserID:  ownerUserID,
		Name:         name,
		PhotoURL:     photoURL,
		QRContent:    qrContent,
		QRCodeBase64: base64.StdEncoding.EncodeToString(png),
		CreatedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, fmt.Errorf("%w: %v", ErrWriteNotConfirmed, err)
	}

	// confirmación de visibilidad, igual que en perfiles
	err = retry.Do(ctx, writeVerifyAttempts, s.retryDelay, func() error {
		_, err := s.repo.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return Pet{}, fmt.Errorf("%w: %v", ErrWriteNotConfirmed, err)
	}

	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ListByOwner reintenta fallas transitorias del store.
func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	var out []Pet
	err := retry.Do(ctx, listRetryAttempts, s.retryDelay, func() error {
		var listErr error
		out, listErr = s.repo.ListByOwner(ctx, ownerUserID)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}
