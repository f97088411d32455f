package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles accepted by admin routes.
type UserRole string

const RoleAdmin UserRole = "ADMIN"

// AdminAccount is an administrator allowed to manage master data.
type AdminAccount struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FullName     string   `json:"fullName"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
}

// JWTClaims describes the admin access token payload.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest holds admin credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int64        `json:"expiresIn"`
	Admin       AdminAccount `json:"admin"`
}
