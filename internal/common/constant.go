package common

const (
	// AuthorizationHeader carries the bearer token on outbound requests.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// RoleAdmin marks identities allowed to read other users' data.
	RoleAdmin = "admin"
	RoleUser  = "user"
)
