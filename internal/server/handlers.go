package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sokinpui/revise/internal/engine"
	"github.com/sokinpui/revise/internal/history"
	"github.com/sokinpui/revise/internal/reconcile"
	"github.com/sokinpui/revise/internal/review"
	"github.com/sokinpui/revise/model"
)

type Handlers struct {
	engine     *engine.Engine
	controller *review.Controller
	log        *slog.Logger
}

func NewHandlers(e *engine.Engine, c *review.Controller, log *slog.Logger) *Handlers {
	return &Handlers{engine: e, controller: c, log: log}
}

// errorStatus maps a domain error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, model.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusUnprocessableEntity, "INVALID_STATE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Warn("request rejected", "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("invalid request", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error(), Code: "INVALID_REQUEST"})
}

// HandleDiff handles POST /v1/diff. It is stateless: nothing is recorded.
func (h *Handlers) HandleDiff(c *gin.Context) {
	logger := h.log.With("handler", "HandleDiff")

	var req DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	res, err := h.engine.Diff(c.Request.Context(), req.OldContent, req.NewContent)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, DiffResponse{
		Document:      res.Document,
		Coarse:        res.Coarse,
		HasChanges:    res.Document.HasChanges(),
		AcceptAllText: reconcile.AcceptAllText(res.Document),
		RejectAllText: reconcile.RejectAllText(res.Document),
	})
}

// HandleCreateEvent handles POST /v1/diff-events.
//
// Response:
//
//	201 Created: model.DiffEvent
//	400 Bad Request: invalid body or non-text content
//	409 Conflict: the file already has a pending event
func (h *Handlers) HandleCreateEvent(c *gin.Context) {
	logger := h.log.With("handler", "HandleCreateEvent")

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	event, err := h.controller.Create(c.Request.Context(), review.CreateRequest{
		FileID:     req.FileID,
		NewContent: req.NewContent,
		Summary:    req.Summary,
		Author:     model.Author(req.Author),
		OldContent: req.OldContent,
	})
	if err != nil {
		h.fail(c, logger.With("file_id", req.FileID), err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// HandlePendingEvent handles GET /v1/diff-events/pending?file_id=.
func (h *Handlers) HandlePendingEvent(c *gin.Context) {
	logger := h.log.With("handler", "HandlePendingEvent")

	fileID := c.Query("file_id")
	if err := history.ValidateFileID(fileID); err != nil {
		h.fail(c, logger, err)
		return
	}
	var resp PendingResponse
	if event, ok := h.controller.Pending(fileID); ok {
		resp.Event = &event
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) HandleGetEvent(c *gin.Context) {
	logger := h.log.With("handler", "HandleGetEvent")

	event, err := h.controller.Event(c.Param("id"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// HandleDiscardEvent handles DELETE /v1/diff-events/:id.
func (h *Handlers) HandleDiscardEvent(c *gin.Context) {
	logger := h.log.With("handler", "HandleDiscardEvent")

	if err := h.controller.Discard(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleLineDecision handles PATCH /v1/diff-events/:id/lines/:lineId.
func (h *Handlers) HandleLineDecision(c *gin.Context) {
	logger := h.log.With("handler", "HandleLineDecision", "event_id", c.Param("id"))

	var req LineDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	decision, err := model.ParseDecision(req.Decision)
	if err != nil {
		h.fail(c, logger, err)
		return
	}

	line, err := h.controller.UpdateLineDecision(c.Request.Context(), c.Param("id"), c.Param("lineId"), decision)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// HandleFinalize handles POST /v1/diff-events/:id/finalize. An empty body
// finalizes from the recorded line decisions.
//
// Response:
//
//	200 OK: FinalizeResponse
//	404 Not Found: unknown event
//	422 Unprocessable Entity: the event is already resolved
func (h *Handlers) HandleFinalize(c *gin.Context) {
	logger := h.log.With("handler", "HandleFinalize", "event_id", c.Param("id"))

	var req FinalizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, logger, err)
			return
		}
	}

	res, err := h.controller.Finalize(c.Request.Context(), c.Param("id"), review.FinalizeRequest{
		FinalContent:  req.FinalContent,
		BulkAcceptAll: req.BulkAcceptAll,
		Summary:       req.Summary,
		Author:        model.Author(req.Author),
	})
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, FinalizeResponse{
		FinalContent: res.FinalContent,
		VersionID:    res.Version.ID,
		Version:      res.Version,
	})
}

// HandlePreview handles GET /v1/diff-events/:id/preview?policy=accept|reject.
func (h *Handlers) HandlePreview(c *gin.Context) {
	logger := h.log.With("handler", "HandlePreview", "event_id", c.Param("id"))

	policy, err := reconcile.ParsePolicy(c.Query("policy"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	preview, err := h.controller.Preview(c.Param("id"), policy)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, PreviewResponse{Policy: policy.String(), Preview: preview})
}

// HandleUpdateContent handles PUT /v1/files/:id/content, a direct edit that
// bypasses review.
//
// Response:
//
//	200 OK: model.VersionNode
//	400 Bad Request: invalid body, author, change type or non-text content
//	409 Conflict: the file has a pending event
func (h *Handlers) HandleUpdateContent(c *gin.Context) {
	fileID := c.Param("id")
	logger := h.log.With("handler", "HandleUpdateContent", "file_id", fileID)

	var req FileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	version, err := h.controller.Write(c.Request.Context(), review.WriteRequest{
		FileID:     fileID,
		Content:    *req.Content,
		Author:     model.Author(req.Author),
		ChangeType: model.ChangeType(req.ChangeType),
		Summary:    req.Summary,
	})
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

// HandleVersions handles GET /v1/files/:id/versions?limit=&offset=, newest first.
func (h *Handlers) HandleVersions(c *gin.Context) {
	fileID := c.Param("id")
	logger := h.log.With("handler", "HandleVersions", "file_id", fileID)

	var q VersionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, logger, err)
		return
	}

	versions, err := h.controller.History().History(c.Request.Context(), fileID, history.Page{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, VersionsResponse{FileID: fileID, Versions: versions})
}

func (h *Handlers) HandleVersion(c *gin.Context) {
	fileID := c.Param("id")
	logger := h.log.With("handler", "HandleVersion", "file_id", fileID)

	node, err := h.controller.History().Version(c.Request.Context(), fileID, c.Param("versionId"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, node)
}
