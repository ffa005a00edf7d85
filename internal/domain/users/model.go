package users

import "time"

// Profile es el perfil del dueño en el document store. El ID lo emite
// el proveedor de identidad y es la clave de partición de todo lo que
// el usuario posee (mascotas, notificaciones).
type Profile struct {
	ID    string
	Name  string
	Email string
	Phone string

	CreatedAt time.Time
	UpdatedAt time.Time
}
