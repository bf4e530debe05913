// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses and the mapping
// from service errors to problem bodies.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Raw sends content as is, e.g. a PDF. Set Content-Type with Header.
func (b *JSONResponseBuilder) Raw(content []byte) *JSONResponseBuilder {
	b.raw = content
	return b
}

// Write sends the built response. Encoding happens before the status is
// written so an unencodable value becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.raw
	if body == nil && b.payload != nil {
		encoded, err := json.Marshal(b.payload)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ProblemResponse creates an error response with a problem body.
func ProblemResponse(statusCode int, title string, fields map[string][]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(api.Problem{Title: title, Status: statusCode, Errors: fields})
}

// BadRequestError creates a 400 response. fields may be nil.
func BadRequestError(title string, fields map[string][]string) *JSONResponseBuilder {
	return ProblemResponse(http.StatusBadRequest, title, fields)
}

// ValidationFailed creates a 422 response listing every field problem.
func ValidationFailed(verr *core.ValidationError) *JSONResponseBuilder {
	return ProblemResponse(http.StatusUnprocessableEntity, "Dados inválidos", verr.Fields)
}

func NotFoundError(title string) *JSONResponseBuilder {
	return ProblemResponse(http.StatusNotFound, title, nil)
}

// InternalServerError hides the cause; it is logged by writeError.
func InternalServerError() *JSONResponseBuilder {
	return ProblemResponse(http.StatusInternalServerError, "Erro interno", nil)
}

func TooManyRequestsError(w http.ResponseWriter, _ *http.Request) {
	ProblemResponse(http.StatusTooManyRequests, "Muitas requisições, tente novamente mais tarde", nil).Write(w)
}

// writeError maps a service error to its HTTP form.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(verr).Write(w)
	case errors.Is(err, core.ErrEmptySearchTerm):
		BadRequestError("Termo de busca vazio", map[string][]string{
			core.FieldSearchTerm: {"Informe um termo para a busca."},
		}).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("Recurso não encontrado").Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
		InternalServerError().Write(w)
	}
}
