package dto

import "github.com/ojtetr/tracker/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// StudentRegisterRequest is the self-registration form of a student
type StudentRegisterRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	StudentID     string `json:"studentId" binding:"required,max=50"`
	FirstName     string `json:"firstName" binding:"max=100"`
	LastName      string `json:"lastName" binding:"max=100"`
	ContactNumber string `json:"contactNumber" binding:"max=50"`
}

// CreateCoordinatorRequest is a coordinator adding another coordinator
type CreateCoordinatorRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"max=100"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID             int64                `json:"id"`
	Email          string               `json:"email"`
	Role           models.Role          `json:"role"`
	Status         models.AccountStatus `json:"status"`
	Name           string               `json:"name"`
	ProfilePicture string               `json:"profilePicture"`
	ProfileID      int64                `json:"profileId,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// RegisterResponse confirms a registration that still awaits approval
type RegisterResponse struct {
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
}
