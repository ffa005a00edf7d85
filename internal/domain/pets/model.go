package pets

import "time"

// Pet es una mascota registrada. El ID es un uuid global (no por
// dueño): el escaneo público resuelve dueño a partir de él.
type Pet struct {
	ID          string
	OwnerUserID string

	Name     string
	PhotoURL string

	// QRContent es la URL embebida en el código (<frontend>/scan/<id>).
	// QRCodeBase64 es el PNG del código, ya renderizado.
	QRContent    string
	QRCodeBase64 string

	CreatedAt time.Time
}
