package scans

import "context"

type Repository interface {
	Append(ctx context.Context, e ScanEvent) error

	// ListByPet devuelve los eventos de la mascota, más recientes primero.
	ListByPet(ctx context.Context, petID string) ([]ScanEvent, error)
}
