package handlers

import (
	"context"
	"strconv"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/internal/services"
	xhttp "github.com/bash586/paytrackbot/pkg/http"
	"github.com/fasthttp/router"
)

type ActionService interface {
	ListRecent(ctx context.Context, n int) ([]*model.Action, error)
}

type UndoService interface {
	Undo(ctx context.Context, adminID int64, actionID int64) (*services.UndoResult, error)
}

type ActionHandler struct {
	actions ActionService
	undo    UndoService
}

func NewActionHandler(actions ActionService, undo UndoService) *ActionHandler {
	return &ActionHandler{actions: actions, undo: undo}
}

func RegisterActionRoutes(e *router.Group, h *ActionHandler) {
	e.GET("/actions/recent", h.ListRecent)
	e.POST("/actions/undo", h.Undo)
}

type undoRequest struct {
	ActionID int64 `json:"action_id"`
}

func (h *ActionHandler) ListRecent(ctx *xhttp.RequestCtx) {
	n := 0
	if v := query(ctx, "n"); v != "" {
		if parsed, e := strconv.Atoi(v); e == nil {
			n = parsed
		}
	}

	actions, err := h.actions.ListRecent(ctx, n)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": actions})
}

func (h *ActionHandler) Undo(ctx *xhttp.RequestCtx) {
	admin, ok := adminID(ctx)
	if !ok {
		writeError(ctx, 400, "missing or invalid "+adminHeader+" header")
		return
	}

	var req undoRequest
	if len(ctx.PostBody()) > 0 {
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, 400, "invalid JSON: "+err.Error())
			return
		}
	}

	result, err := h.undo.Undo(ctx, admin, req.ActionID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}
