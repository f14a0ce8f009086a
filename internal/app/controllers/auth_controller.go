package controllers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/rs/zerolog"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService  services.AuthService
	tokenTTL     time.Duration
	cookieSecure bool
	logger       zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, tokenTTL time.Duration, cookieSecure bool, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService:  authService,
		tokenTTL:     tokenTTL,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// StudentRegister handles student self-registration
// @Summary Register a student
// @Description Creates a pending student account. A coordinator must approve it before the student can log in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.StudentRegisterRequest true "Student registration information"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterResponse} "Registration submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/student-register [post]
func (c *AuthController) StudentRegister(ctx *gin.Context) {
	var req dto.StudentRegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration request payload")
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.authService.RegisterStudent(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondData(ctx, http.StatusCreated, resp)
}

// Login handles user login
// @Summary User login
// @Description Authenticates an active user, returns an access token and sets it as the token cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account pending approval or rejected"
// @Failure 429 {object} dto.ErrorResponse "Too many login attempts"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, resp.Token.AccessToken, int(c.tokenTTL.Seconds()), "/", "", c.cookieSecure, true)
	respondData(ctx, http.StatusOK, resp)
}

// Logout clears the token cookie
// @Summary Log out
// @Description Clears the token cookie and redirects to the login page
// @Tags auth
// @Success 302 "Redirect to the login page"
// @Router /auth/logout [get]
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, "", -1, "/", "", c.cookieSecure, true)
	ctx.Redirect(http.StatusFound, "/?message="+url.QueryEscape("Logged out successfully"))
}

// Me returns the authenticated user
// @Summary Current user
// @Description Returns the authenticated user with the display name and avatar resolved
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Current user"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	resp, err := c.authService.Me(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// CreateCoordinator lets a coordinator add another coordinator
// @Summary Create coordinator
// @Description Creates an active coordinator account
// @Tags coordinator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCoordinatorRequest true "Coordinator account"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse} "Coordinator created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /coordinator/coordinators [post]
func (c *AuthController) CreateCoordinator(ctx *gin.Context) {
	var req dto.CreateCoordinatorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.authService.CreateCoordinator(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusCreated, resp)
}
