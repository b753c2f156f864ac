package students

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

// RegisterAdminRoutes attaches the student management routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/students", h.list)
	rg.POST("/students", h.create)
	rg.GET("/students/:id", h.get)
	rg.PUT("/students/:id", h.update)
	rg.DELETE("/students/:id", h.delete)
	rg.PUT("/students/:id/status", h.updateStatus)
}

// RegisterPublicRoutes attaches unauthenticated routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/students/verify/:id", h.verify)
}

// RegisterStudentRoutes attaches routes for the signed-in student.
func (h *Handler) RegisterStudentRoutes(rg *gin.RouterGroup) {
	rg.GET("/students/me", h.me)
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.Svc.List(c.Request.Context(), ListQuery{
		Search: c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err, "failed to list students")
		return
	}
	respond.OK(c, ListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) create(c *gin.Context) {
	var req CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	st, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to create student")
		return
	}
	c.Set("studentId", st.ID)
	respond.Created(c, st)
}

func (h *Handler) get(c *gin.Context) {
	st, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load student")
		return
	}
	c.Set("studentId", st.ID)
	respond.OK(c, st)
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	st, err := h.Svc.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "failed to update student")
		return
	}
	c.Set("studentId", st.ID)
	respond.OK(c, st)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete student")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ClearanceStatus == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "clearance_status is required", nil)
		return
	}

	res, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), StatusUpdate{
		Status:  req.toStatus(),
		Message: req.NotificationMessage,
	})
	if err != nil {
		writeError(c, err, "failed to update clearance status")
		return
	}
	c.Set("studentId", res.Student.ID)
	c.Set("statusTransition", Transition(res.Previous, res.Student.ClearanceStatus))
	respond.OK(c, res.Student)
}

func (h *Handler) verify(c *gin.Context) {
	v, err := h.Svc.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to verify student")
		return
	}
	c.Set("studentId", v.Student.ID)
	respond.OK(c, v)
}

func (h *Handler) me(c *gin.Context) {
	st, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load student")
		return
	}
	respond.OK(c, st)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "student not found", nil)
	case errors.Is(err, ErrDocumentNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "student with the same student_id, email, or roll_number exists", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
