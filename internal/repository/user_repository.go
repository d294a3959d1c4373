package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"samvaad/internal/api"
	"samvaad/internal/entity"
)

type UserRepository struct {
	client *api.Client
}

func NewUserRepository(client *api.Client) *UserRepository {
	return &UserRepository{client: client}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is what both auth endpoints answer with. Older backend
// revisions put the role next to the token instead of inside user; it is
// folded into user.role so the session has a single place for it.
type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
	Role  string  `json:"role"`
}

type userDTO struct {
	ID       string `json:"id"`
	MongoID  string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (r authResponse) session() *entity.Session {
	u := entity.User{
		ID:       firstNonEmpty(r.User.ID, r.User.MongoID),
		Name:     r.User.Name,
		Username: r.User.Username,
		Email:    r.User.Email,
		Role:     entity.Role(strings.ToLower(firstNonEmpty(r.User.Role, r.Role))),
	}
	// An unknown role grants nothing.
	if !u.Role.Valid() {
		u.Role = ""
	}
	return &entity.Session{Token: r.Token, User: u}
}

// Login exchanges credentials for a session.
func (r *UserRepository) Login(ctx context.Context, username, password string) (*entity.Session, error) {
	var resp authResponse
	creds := map[string]string{"username": username, "password": password}
	if err := r.client.Do(ctx, http.MethodPost, "/api/auth/login", "", creds, &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, &UserRepositoryError{"login response carried no token"}
	}
	return resp.session(), nil
}

// Register creates the account. Backends that sign the user in right away
// answer with a token and a session is returned; otherwise the session is
// nil and the caller should send the user to log in.
func (r *UserRepository) Register(ctx context.Context, in RegisterInput) (*entity.Session, error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodPost, "/api/auth/register", "", in, &raw); err != nil {
		return nil, err
	}

	var resp authResponse
	if len(raw) == 0 || json.Unmarshal(raw, &resp) != nil || resp.Token == "" {
		return nil, nil
	}

	sess := resp.session()
	if sess.User.Username == "" {
		sess.User.Username = in.Username
	}
	if sess.User.Name == "" {
		sess.User.Name = in.Name
	}
	return sess, nil
}

type UserRepositoryError struct {
	Message string
}

func (e *UserRepositoryError) Error() string {
	return "User repository error: " + e.Message
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
