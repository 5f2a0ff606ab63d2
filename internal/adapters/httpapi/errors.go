package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

// writeAppError maps application errors onto their response; anything else is logged
// and reported as 500 INTERNAL without leaking the cause.
func writeAppError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	if ae, ok := apperr.As(err); ok {
		if ae.Status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("code", ae.Code).Msg("request failed")
		}
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	log.Error().Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("unhandled error")
	writeError(w, r, http.StatusInternalServerError, apperr.CodeInternal, "internal error", nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
