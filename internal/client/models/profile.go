package models

// DefaultUserName is shown while nobody is signed in.
const DefaultUserName = "Dear User"

type UserProfile struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

func DefaultProfile() UserProfile {
	return UserProfile{Name: DefaultUserName}
}

// IsDefault reports whether p carries nothing beyond the placeholder.
func (p UserProfile) IsDefault() bool {
	return p.Email == "" && (p.Name == "" || p.Name == DefaultUserName)
}
