package domain

// User is the authenticated account as returned by the auth endpoint.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
