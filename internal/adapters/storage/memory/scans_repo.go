package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-recovery/internal/domain/scans"
)

type scanRepo struct {
	mu    sync.RWMutex
	byPet map[string][]scans.ScanEvent
}

func NewScanRepo() scans.Repository {
	return &scanRepo{
		byPet: make(map[string][]scans.ScanEvent),
	}
}

func (r *scanRepo) Append(ctx context.Context, e scans.ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.PetID) == "" {
		return errors.New("pet id required")
	}
	r.byPet[e.PetID] = append(r.byPet[e.PetID], e)
	return nil
}

func (r *scanRepo) ListByPet(ctx context.Context, petID string) ([]scans.ScanEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.byPet[petID]
	out := make([]scans.ScanEvent, len(events))
	copy(out, events)

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
