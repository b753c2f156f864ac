package admins

import "time"

// Admin is a staff account allowed to manage students.
type Admin struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	LastLogin    *time.Time `json:"last_login" bson:"last_login"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

// CreateInput holds the fields for a new admin account.
type CreateInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     Admin     `json:"admin"`
}
