// Package handlers implements the HTTP handlers of the prediction API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps err to its HTTP status.  Server-side failures are masked
// with the default message of their code.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{
		Code:      code.String(),
		RequestID: chimw.GetReqID(r.Context()),
	}

	var ae *errors.AppError
	switch {
	case status >= 500:
		resp.Message = errors.DefaultMessageForCode(code)
		logger.Error("request failed",
			logging.RequestID(resp.RequestID),
			logging.String("code", resp.Code),
			logging.Err(err))
	case errors.As(err, &ae):
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	default:
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads at most maxBytes of JSON from the request body into dst.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	body := io.Reader(r.Body)
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Newf(errors.ErrCodeBadRequest, "request body exceeds %d bytes", maxBytes)
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed JSON body").WithDetail(err.Error())
	}
	if dec.More() {
		return errors.New(errors.ErrCodeBadRequest, "request body must contain a single JSON object")
	}
	return nil
}

//Personal.AI order the ending
