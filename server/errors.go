package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/prior-it/vatengine/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func DefaultErrorHandler(c *Ctx, err error) {
	code, msg := func() (int, string) {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			return http.StatusBadRequest, err.Error()
		case errors.Is(err, core.ErrNotFound):
			return http.StatusNotFound, "not found"
		case errors.Is(err, core.ErrConflict):
			return http.StatusConflict, "conflict"
		}
		return http.StatusInternalServerError, "internal server error"
	}()
	if code >= http.StatusInternalServerError {
		c.Error("Server error", "error", err)
	} else {
		c.Debug("Request failed", "status", code, "error", err)
	}
	render.Status(c.Request, code)
	render.JSON(c.Writer, c.Request, errorResponse{Error: msg})
}
