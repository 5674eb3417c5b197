package model

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Login    string
	Email    string
	Password string
}

// LoginInput is the payload of a login together with client metadata.
type LoginInput struct {
	LoginOrEmail string
	Password     string
	UserAgent    string
	IP           string
}
