package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/shared/server/middleware"
	"clearance-backend/internal/shared/server/respond"
	"clearance-backend/internal/shared/storage/object"
	"clearance-backend/internal/students"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterStudentRoutes attaches the signed-in student's document routes.
func (h *Handler) RegisterStudentRoutes(rg *gin.RouterGroup) {
	rg.GET("/students/me/documents", h.listMine)
	rg.POST("/students/me/documents/:department", h.upload)
	rg.GET("/students/me/documents/:department/:documentId", h.downloadMine)
	rg.DELETE("/students/me/documents/:department/:documentId", h.delete)
}

// RegisterAdminRoutes attaches the admin document routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/students/:id/documents", h.listForStudent)
	rg.GET("/students/:id/documents/:department/:documentId", h.downloadForStudent)
}

func (h *Handler) upload(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	dept, ok := clearance.ParseDepartment(c.Param("department"))
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown department", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > MaxUploadSize {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), studentID, dept, fileHeader.Filename, file)
	if err != nil {
		writeError(c, err, "failed to upload document")
		return
	}
	c.Set("studentId", studentID)
	respond.Created(c, doc)
}

func (h *Handler) listMine(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	dept, ok := optionalDepartment(c)
	if !ok {
		return
	}
	docs, err := h.Svc.List(c.Request.Context(), studentID, dept)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	respond.OK(c, ListResponse{StudentID: studentID, Documents: docs})
}

func (h *Handler) listForStudent(c *gin.Context) {
	dept, ok := optionalDepartment(c)
	if !ok {
		return
	}
	studentID, docs, err := h.Svc.ListForKey(c.Request.Context(), c.Param("id"), dept)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	c.Set("studentId", studentID)
	respond.OK(c, ListResponse{StudentID: studentID, Documents: docs})
}

func (h *Handler) delete(c *gin.Context) {
	studentID := middleware.UserIDFromContext(c)
	dept, ok := clearance.ParseDepartment(c.Param("department"))
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown department", nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), studentID, dept, c.Param("documentId")); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	c.Set("studentId", studentID)
	respond.NoContent(c)
}

func (h *Handler) downloadMine(c *gin.Context) {
	h.download(c, middleware.UserIDFromContext(c))
}

func (h *Handler) downloadForStudent(c *gin.Context) {
	studentID, err := h.Svc.Records.ResolveStudentID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load student")
		return
	}
	h.download(c, studentID)
}

func (h *Handler) download(c *gin.Context, studentID string) {
	dept, ok := clearance.ParseDepartment(c.Param("department"))
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown department", nil)
		return
	}
	doc, body, err := h.Svc.Open(c.Request.Context(), studentID, dept, c.Param("documentId"))
	if err != nil {
		writeError(c, err, "failed to open document")
		return
	}
	defer body.Close()

	c.Set("studentId", studentID)
	c.Header("Content-Disposition", `attachment; filename="`+doc.OriginalFilename+`"`)
	c.Header("Content-Type", doc.FileType)
	c.Header("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

func optionalDepartment(c *gin.Context) (clearance.Department, bool) {
	raw := c.Query("department")
	if raw == "" {
		return "", true
	}
	dept, ok := clearance.ParseDepartment(raw)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown department", nil)
		return "", false
	}
	return dept, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, students.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, students.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "student not found", nil)
	case errors.Is(err, students.ErrDocumentNotFound), errors.Is(err, object.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
