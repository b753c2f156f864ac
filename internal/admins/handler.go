package admins

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clearance-backend/internal/shared/server/middleware"
	"clearance-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterLoginRoute attaches the unauthenticated login route. Callers add
// rate limiting through mw.
func (h *Handler) RegisterLoginRoute(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	rg.POST("/admin/login", append(mw, h.login)...)
}

// RegisterRoutes attaches the admin-only account routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) me(c *gin.Context) {
	a, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "admin not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load admin", nil)
		return
	}
	respond.OK(c, a)
}
