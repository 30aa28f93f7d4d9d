package controller

import (
	"errors"

	"medprep_backend/internal/model"
	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{
		AuthService: authService,
		UserService: userService,
	}
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"omitempty,oneof=student educator"`
	TargetExam string `json:"targetExam" binding:"omitempty,oneof=neet-pg inicet"`
	PrepYear   int    `json:"prepYear"`
}

// Register godoc
// @Summary Register a new user
// @Description Create a student or educator account
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "Registration details"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Invalid request"
// @Failure 409 {object} util.Response "Email already registered"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	role := model.UserRole(req.Role)
	if role == "" {
		role = model.Student
	}
	user := &model.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		TargetExam: req.TargetExam,
		PrepYear:   req.PrepYear,
	}

	if err := c.AuthService.Register(user); err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Conflict(ctx, "email already registered")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID})
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in
// @Description Verify credentials and return a JWT
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "Login credentials"
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 400 {object} util.Response "Invalid request"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"targetExam": user.TargetExam,
		},
	})
}

// GetProfile godoc
// @Summary Current user profile
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, user)
}

// UpdateProfile godoc
// @Summary Update profile
// @Description Change name, target exam, prep year or avatar
// @Tags auth
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ProfileUpdate true "Fields to update"
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req service.ProfileUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.UpdateProfile(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// ChangePassword godoc
// @Summary Change password
// @Tags auth
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} util.Response "Success"
// @Failure 400 {object} util.Response "Wrong current password"
// @Router /api/profile/password [put]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.ChangePassword(claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}
