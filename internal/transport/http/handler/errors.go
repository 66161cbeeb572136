package handler

const (
	errInternalServer  = "Internal server error"
	errTokenInvalid    = "Token is invalid or expired"
	errUserExists      = "Account already exists"
	errUserNotFound    = "Account not found"
	errAlreadyVerified = "Account is already verified"
	errUnauthenticated = "Unauthenticated"
)
