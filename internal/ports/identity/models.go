package identity

// Account es la cuenta tal como la conoce el proveedor de identidad.
type Account struct {
	ID       string
	Email    string
	Disabled bool
}

// Claims es la información extraída de un token verificado.
type Claims struct {
	UserID string
	Email  string
}
