package notifications

import "time"

type Kind string

// Por ahora hay un solo tipo; el campo existe para poder sumar otros
// avisos sin migrar registros.
const KindPetScanned Kind = "pet_scanned"

// Notification es un aviso dirigido al dueño. Solo muta el flag de
// leído; nunca se borra.
type Notification struct {
	ID          string
	OwnerUserID string

	PetID   string
	PetName string

	// Message es el texto ya renderizado que ve el dueño.
	Message string

	Latitude  float64
	Longitude float64

	// LocationInfo es el lugar legible (best-effort, puede ir vacío).
	LocationInfo string

	// UserMessage es el texto libre que dejó quien escaneó.
	UserMessage string

	Kind Kind
	Read bool

	CreatedAt time.Time
}
