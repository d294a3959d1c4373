package entity

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// Session is the credential and identity held for the current login.
// Token and User.Role may be empty in what comes back from storage; a
// session without a token is never considered present.
type Session struct {
	Token string `json:"token,omitempty"`
	User  User   `json:"user"`
}

func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// DisplayName prefers the full name and falls back to the login.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.User.Name != "" {
		return s.User.Name
	}
	return s.User.Username
}
