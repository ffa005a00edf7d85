package geo

import "context"

// Geocoder resuelve coordenadas a un lugar legible. Best-effort:
// quien lo llama debe tolerar error y degradar a coordenadas crudas.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}
