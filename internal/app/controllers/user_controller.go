package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/rs/zerolog"
)

// UserController handles staff account settings
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

// UpdateStaffProfile changes a coordinator's or director's display name and picture
// @Summary Update staff profile
// @Description Accepts JSON with a name, or multipart form data with a name and an optional picture. An empty name keeps the current one.
// @Tags staff
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param name formData string false "Display name"
// @Param picture formData file false "Profile picture (JPEG or PNG, max 10 MB)"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Profile updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid picture"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Router /staff/profile [put]
func (c *UserController) UpdateStaffProfile(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req dto.StaffProfileRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	var picture *services.Upload
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		if fh, err := ctx.FormFile("picture"); err == nil {
			upload, closer, err := openUpload(fh)
			if err != nil {
				middleware.HandleAPIError(ctx, err)
				return
			}
			defer closer.Close()
			picture = &upload
		} else if middleware.BodyTooLarge(err) {
			middleware.HandleAPIError(ctx, err)
			return
		} else if err != http.ErrMissingFile {
			c.logger.Debug().Err(err).Msg("Ignoring unreadable picture field")
		}
	}

	resp, err := c.userService.UpdateStaffProfile(ctx.Request.Context(), actor, strings.TrimSpace(req.Name), picture)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}
