package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// User is the authenticated operator of the dashboard. Authentication itself is a
// boundary subsystem; the pipeline only needs the identity on the request context.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UserName  string    `json:"user_name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}
