package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/gorilla/schema"
	"github.com/prior-it/vatengine/core"
)

var queryDecoder = func() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}()

// Ctx wraps a single request and its response writer.
type Ctx struct {
	Writer  http.ResponseWriter
	Request *http.Request
	logger  *slog.Logger
}

func (c *Ctx) StatusCode(code int) {
	c.Writer.WriteHeader(code)
}

// Log the specified error message. args is a list of structured fields to add to the error message.
// The arguments should alternate between a field's name (string) and its value (any).
// This behaves the same as [log/slog.Error]
//
// # Example
//
//	c.Error("Could not determine VAT", "error", err)
func (c *Ctx) Error(msg string, args ...any) {
	c.logger.Error(msg, args...)
}

func (c *Ctx) Debug(msg string, args ...any) {
	c.logger.Debug(msg, args...)
}

// LogString will add the specified field and its value to the current request's log entry
func (c *Ctx) LogString(field string, value string) {
	c.LogField(field, slog.StringValue(value))
}

// LogField will add the specified field and its value to the current request's log entry
func (c *Ctx) LogField(field string, value slog.Value) {
	httplog.LogEntrySetField(c.Context(), field, value)
}

// Context returns the request's context.
func (c *Ctx) Context() context.Context {
	return c.Request.Context()
}

func (c *Ctx) Path() string {
	return c.Request.URL.Path
}

// GetPath returns the value of a named route parameter.
// E.g.: A route defined as `/customers/{id}` can call `GetPath("id")`.
func (c *Ctx) GetPath(key string) string {
	return chi.URLParam(c.Request, key)
}

// GetQuery returns the first value of the given query parameter, or "" if it is not set.
func (c *Ctx) GetQuery(param string) string {
	return c.Request.URL.Query().Get(param)
}

// QueryFloat parses a required numeric query parameter.
func (c *Ctx) QueryFloat(param string) (float64, error) {
	raw := strings.TrimSpace(c.GetQuery(param))
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q: %w", param, core.ErrInvalidInput)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Join(core.ErrInvalidInput, fmt.Errorf("query parameter %q: %w", param, err))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("query parameter %q must be a finite number: %w", param, core.ErrInvalidInput)
	}
	return value, nil
}

// DecodeQuery decodes the url query into v using the `schema` struct tags.
func (c *Ctx) DecodeQuery(v any) error {
	if err := queryDecoder.Decode(v, c.Request.URL.Query()); err != nil {
		return errors.Join(core.ErrInvalidInput, fmt.Errorf("cannot decode query: %w", err))
	}
	return nil
}

// DecodeJSON decodes the JSON request body into v.
func (c *Ctx) DecodeJSON(v any) error {
	if err := render.DecodeJSON(c.Request.Body, v); err != nil {
		return errors.Join(core.ErrInvalidInput, fmt.Errorf("cannot decode body: %w", err))
	}
	return nil
}

// JSON writes v as the JSON response body.
func (c *Ctx) JSON(v any) error {
	render.JSON(c.Writer, c.Request, v)
	return nil
}

func (c *Ctx) Text(text string) error {
	render.PlainText(c.Writer, c.Request, text)
	return nil
}
