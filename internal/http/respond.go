package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finstress/internal/charts"
	"finstress/internal/core"
	applog "finstress/internal/log"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrEmptyDataset),
		errors.Is(err, core.ErrDivisionUndefined),
		errors.Is(err, charts.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnreadableImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as JSON. Internal failures are not echoed
// to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	logger := applog.FromContext(r.Context())
	switch {
	case status >= 500:
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldPath, r.URL.Path, applog.FieldStatusCode, status, applog.FieldError, err)
		if status == http.StatusInternalServerError {
			resp.Error = "internal error"
		}
	default:
		logger.DebugContext(r.Context(), "Request rejected", applog.FieldPath, r.URL.Path, applog.FieldStatusCode, status, applog.FieldError, err)
	}
	writeJSON(w, status, resp)
}

// readBody reads at most maxJSONBody bytes and rejects empty bodies.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, errBadRequest)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty body: %w", errBadRequest)
	}
	return body, nil
}

// decodeStrict decodes one JSON value and rejects unknown fields.
func decodeStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %v: %w", err, errBadRequest)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("invalid JSON: trailing data: %w", errBadRequest)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return decodeStrict(body, v)
}
