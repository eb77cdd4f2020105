package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/notes"
	"github.com/notevault/notevault/internal/users"
	"github.com/notevault/notevault/pkg/logger"
	"github.com/notevault/notevault/pkg/middleware"
)

type UpdateMeRequest struct {
	Name string `json:"name" binding:"required"`
}

// UserHandler exposes profile endpoints plus the admin user listing.
type UserHandler struct {
	users *users.Service
	notes *notes.Service
}

func NewUserHandler(u *users.Service, n *notes.Service) *UserHandler {
	return &UserHandler{users: u, notes: n}
}

func (h *UserHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	u := rg.Group("/users", requireAuth)
	u.GET("/me", h.Me)
	u.PATCH("/me", h.UpdateMe)
	u.DELETE("/me", h.DeleteMe)
	u.GET("", middleware.RequireRole(models.RoleAdmin), h.List)
}

func (h *UserHandler) Me(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	u, err := h.users.GetMe(c.Request.Context(), authCtx.User.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authCtx := middleware.FromContext(c)
	u, err := h.users.UpdateMe(c.Request.Context(), authCtx.User.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteMe removes the account and everything it owns.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	if err := h.users.DeleteMe(c.Request.Context(), authCtx.User.ID); err != nil {
		respondError(c, err)
		return
	}
	if count, err := h.notes.PurgeUser(c.Request.Context(), authCtx.User.ID); err != nil {
		logger.Warnf("failed to purge notes for deleted user %s: %v", authCtx.User.ID, err)
	} else if count > 0 {
		logger.Infof("purged %d notes for deleted user %s", count, authCtx.User.ID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// List is admin-only.
func (h *UserHandler) List(c *gin.Context) {
	page, limit := pageQuery(c)
	list, total, err := h.users.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "currentPage": page})
}
