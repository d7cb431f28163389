package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-editor/internal/dto"
	"github.com/noah-isme/sma-timetable-editor/internal/editor"
	"github.com/noah-isme/sma-timetable-editor/internal/middleware"
	"github.com/noah-isme/sma-timetable-editor/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
	"github.com/noah-isme/sma-timetable-editor/pkg/response"
)

type editorService interface {
	OpenSession(ctx context.Context, req dto.OpenSessionRequest, claims *models.JWTClaims) (*editor.View, error)
	Session(id string, claims *models.JWTClaims) (*editor.View, error)
	PatchForm(id string, req dto.FormPatchRequest, claims *models.JWTClaims) (*editor.View, error)
	Validate(id string, claims *models.JWTClaims) (*dto.ValidationResult, error)
	Confirm(ctx context.Context, id string, claims *models.JWTClaims) (*editor.View, error)
	DeleteEvent(ctx context.Context, id string, claims *models.JWTClaims) (*editor.View, error)
	Cancel(id string, claims *models.JWTClaims) error
	CheckConflicts(ctx context.Context, req dto.ConflictQuery) (*dto.ConflictReport, error)
	ExportOccupancy(ctx context.Context, q dto.OccupancyQuery) (*dto.OccupancyExport, error)
}

// EditorHandler exposes the timetable event editor.
type EditorHandler struct {
	service editorService
}

// NewEditorHandler constructs the handler.
func NewEditorHandler(service editorService) *EditorHandler {
	return &EditorHandler{service: service}
}

// Open godoc
// @Summary Open an editor session
// @Tags Editor
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /editor/sessions [post]
func (h *EditorHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid editor session payload"))
		return
	}
	view, err := h.service.OpenSession(c.Request.Context(), req, middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get an editor session
// @Tags Editor
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /editor/sessions/{id} [get]
func (h *EditorHandler) Get(c *gin.Context) {
	view, err := h.service.Session(c.Param("id"), middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Patch godoc
// @Summary Patch the form of an editor session
// @Tags Editor
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.FormPatchRequest true "Form fields to overwrite"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /editor/sessions/{id}/form [patch]
func (h *EditorHandler) Patch(c *gin.Context) {
	var req dto.FormPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form patch"))
		return
	}
	view, err := h.service.PatchForm(c.Param("id"), req, middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Validate godoc
// @Summary Validate the form of an editor session
// @Tags Editor
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /editor/sessions/{id}/validate [post]
func (h *EditorHandler) Validate(c *gin.Context) {
	result, err := h.service.Validate(c.Param("id"), middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Confirm godoc
// @Summary Validate and save an editor session
// @Tags Editor
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /editor/sessions/{id}/confirm [post]
func (h *EditorHandler) Confirm(c *gin.Context) {
	view, err := h.service.Confirm(c.Request.Context(), c.Param("id"), middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Delete godoc
// @Summary Delete the event an editor session was opened on
// @Tags Editor
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /editor/sessions/{id}/delete [post]
func (h *EditorHandler) Delete(c *gin.Context) {
	view, err := h.service.DeleteEvent(c.Request.Context(), c.Param("id"), middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Cancel godoc
// @Summary Cancel an editor session
// @Tags Editor
// @Param id path string true "Session ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /editor/sessions/{id} [delete]
func (h *EditorHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Param("id"), middleware.Claims(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Conflicts godoc
// @Summary Annotate rooms with conflicts for a range
// @Tags Editor
// @Accept json
// @Produce json
// @Param payload body dto.ConflictQuery true "Conflict query"
// @Success 200 {object} response.Envelope
// @Router /editor/conflicts [post]
func (h *EditorHandler) Conflicts(c *gin.Context) {
	var req dto.ConflictQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict query"))
		return
	}
	report, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, report.Cached)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Occupancy godoc
// @Summary Export room and invigilation occupancy
// @Tags Editor
// @Produce text/calendar
// @Produce text/csv
// @Produce application/pdf
// @Param window_start query int true "Window start (epoch seconds)"
// @Param window_end query int true "Window end (epoch seconds)"
// @Param format query string false "ics, csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /editor/occupancy [get]
func (h *EditorHandler) Occupancy(c *gin.Context) {
	var q dto.OccupancyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid occupancy query"))
		return
	}
	doc, err := h.service.ExportOccupancy(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
