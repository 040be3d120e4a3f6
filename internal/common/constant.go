package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// UserTypeListener is assigned when registration omits a user type.
	UserTypeListener = "listener"
)
