package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clearance-backend/internal/shared/server/middleware"
	"clearance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterAdminRoutes attaches the admin notification routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.listAll)
	rg.POST("/notifications", h.create)
	rg.DELETE("/notifications/:id", h.adminDelete)
}

// RegisterStudentRoutes attaches the routes a signed-in student uses for their own notifications.
func (h *Handler) RegisterStudentRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.listMine)
	rg.PATCH("/notifications/read-all", h.markAllRead)
	rg.PATCH("/notifications/:id/read", h.markRead)
	rg.DELETE("/notifications/:id", h.deleteMine)
}

type createRequest struct {
	StudentID string `json:"student_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	n, err := h.Svc.EmitForKey(c.Request.Context(), req.StudentID, Input{
		Title:   req.Title,
		Message: req.Message,
		Type:    Type(req.Type),
	})
	if err != nil {
		writeError(c, err, "failed to create notification")
		return
	}
	c.Set("studentId", n.StudentID)
	respond.Created(c, n)
}

func (h *Handler) listAll(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list notifications")
		return
	}
	respond.OK(c, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) adminDelete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), ""); err != nil {
		writeError(c, err, "failed to delete notification")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) listMine(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	items, err := h.Svc.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err, "failed to list notifications")
		return
	}
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	respond.OK(c, gin.H{"items": items, "unread": unread})
}

func (h *Handler) markRead(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	if err := h.Svc.MarkRead(c.Request.Context(), c.Param("id"), studentID); err != nil {
		writeError(c, err, "failed to update notification")
		return
	}
	respond.OK(c, gin.H{"id": c.Param("id"), "read": true})
}

func (h *Handler) markAllRead(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	updated, err := h.Svc.MarkAllRead(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err, "failed to update notifications")
		return
	}
	respond.OK(c, gin.H{"updated": updated})
}

func (h *Handler) deleteMine(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), studentID); err != nil {
		writeError(c, err, "failed to delete notification")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrStudentNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "student not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "notification not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}
