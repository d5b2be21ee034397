package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/middleware"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
)

type setAdminFlagRequest struct {
	IsAdmin        *bool `json:"isAdmin"`
	RevokeSessions bool  `json:"revokeSessions"`
}

func (h HandlerSet) SetAdminFlag(c *gin.Context) {
	var req setAdminFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be a JSON object")
		return
	}
	if req.IsAdmin == nil {
		badRequest(c, "isAdmin is required")
		return
	}

	actor, _ := session.CurrentIdentity(middleware.CurrentSession(c))
	user, err := h.admin.SetAdminFlag(c.Request.Context(), service.SetAdminFlagInput{
		IdentityID:     c.Param("id"),
		IsAdmin:        *req.IsAdmin,
		RevokeSessions: req.RevokeSessions,
		ActorID:        actor.ID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{User: user})
}
