package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/bash586/paytrackbot/internal/services"
	xhttp "github.com/bash586/paytrackbot/pkg/http"
)

const adminHeader = "X-Admin-ID"

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps the service error categories onto status codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(ctx, 400, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrState):
		writeError(ctx, 409, err.Error())
	case errors.Is(err, services.ErrPrecondition):
		writeError(ctx, 412, err.Error())
	default:
		writeError(ctx, 500, "internal error")
	}
}

// adminID reads the caller's identity from the X-Admin-ID header.
func adminID(ctx *xhttp.RequestCtx) (int64, bool) {
	raw := string(ctx.Request.Header.Peek(adminHeader))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	raw, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(raw, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
