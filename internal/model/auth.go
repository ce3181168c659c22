package model

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims are JWT claims for the chat bridge calling the engine
type OperatorClaims struct {
	OperatorID string `json:"operatorId"`
	jwt.RegisteredClaims
}

// ProfessionalClaims are JWT claims for therapeutic assistants receiving alerts
type ProfessionalClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for operator login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token      string `json:"token"`
	OperatorID string `json:"operatorId"`
}

// ProfessionalTokenResponse is returned when a professional token is issued
type ProfessionalTokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
