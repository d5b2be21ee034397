package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/middleware"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User models.Projection `json:"user"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be a JSON object")
		return
	}

	sess := middleware.CurrentSession(c)
	user, err := h.auth.Register(c.Request.Context(), sess, service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.writeSessionCookie(c, sess); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userResponse{User: user})
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be a JSON object")
		return
	}

	sess := middleware.CurrentSession(c)
	user, err := h.auth.Login(c.Request.Context(), sess, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.writeSessionCookie(c, sess); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentSession(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) CurrentUser(c *gin.Context) {
	user, err := h.auth.CurrentUser(middleware.CurrentSession(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user})
}
