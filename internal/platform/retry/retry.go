package retry

import (
	"context"
	"time"
)

// Do ejecuta fn hasta attempts veces con una espera fija entre intentos.
// Devuelve nil al primer éxito; si todos fallan, devuelve el último error.
// La espera respeta cancelación de contexto.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		if i > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(); err != nil {
			last = err
			continue
		}
		return nil
	}
	return last
}
