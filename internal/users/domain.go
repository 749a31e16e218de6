package users

import "time"

// Row is the storage shape of a user. PasswordHash never leaves this package
// except through auth.Account during login.
type Row struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User is the public transfer shape. It carries no credential material.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToUser maps a storage row to its transfer shape.
func ToUser(row Row) User {
	return User{
		ID:        row.ID,
		Username:  row.Username,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// ToRow maps a transfer shape back to a storage row with the given digest.
func ToRow(u User, passwordHash string) Row {
	return Row{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: passwordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateInput holds the fields required to register a user.
type CreateInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,account_email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// UpdateInput holds profile changes. Empty fields keep the stored value.
type UpdateInput struct {
	Username string `json:"username" validate:"omitempty,max=64"`
	Email    string `json:"email" validate:"omitempty,account_email,max=254"`
	Password string `json:"password" validate:"omitempty,min=8,max=256"`
}

const (
	usernameChangedTitle = "Changes on username has been made"
	emailChangedTitle    = "Changes on your email has been made"
)

func usernameChangedDescription(from, to string) string {
	return `Someone has changed your username from "` + from + `" to "` + to + `"`
}

func emailChangedDescription(from, to string) string {
	return `Someone has changed your email from "` + from + `" to "` + to + `"`
}
