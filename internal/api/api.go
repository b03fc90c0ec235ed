// Package api holds the JSON shapes exchanged between the REST server and
// its clients.
package api

import "github.com/dmitrijs2005/mediminder/internal/common"

const (
	// Version prefix of every route, below the /api mount point.
	Version = "/v1"

	HealthPath  = Version + "/health"
	ProfilePath = Version + "/profile"
	ChangesPath = Version + "/changes"

	AuthRegisterPath = Version + "/auth/register"
	AuthLoginPath    = Version + "/auth/login"
	AuthMePath       = Version + "/auth/me"

	AdminUsersPath = Version + "/admin/users"
)

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role"`
}

func (r AuthResponse) IsAdmin() bool {
	return r.Role == common.RoleAdmin
}

// UserResponse is the body of the "me" endpoint.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Profile is the stored user profile. UserID is only set in admin listings.
type Profile struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ChangeEvent is pushed over the changes websocket whenever one of the
// user's collections is replaced or cleared.
type ChangeEvent struct {
	Collection string `json:"collection"`
	At         int64  `json:"at"`
}

// CollectionPath returns the route of a collection's REST path segment.
func CollectionPath(segment string) string {
	return Version + "/" + segment
}
