package scans

import "time"

// ScanEvent es un reporte anónimo de escaneo. Solo se agrega, nunca se
// muta ni borra. Va claveado por mascota y no por dueño: quien escanea
// no sabe de quién es la mascota.
type ScanEvent struct {
	ID    string
	PetID string

	Latitude  float64
	Longitude float64

	// Message es el texto libre opcional de quien escaneó.
	Message string

	CreatedAt time.Time
}
