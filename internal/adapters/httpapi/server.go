package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/app/advisor"
	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/app/dashboard"
	"github.com/chibo-dx/roster-api/internal/app/editrequests"
	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/app/meetings"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

const maxBodyBytes = 1 << 20

type Services struct {
	Members      *members.Service
	EditRequests *editrequests.Service
	Fees         *fees.Service
	Meetings     *meetings.Service
	Dashboard    *dashboard.Service
	Advisor      *advisor.Service
}

// Server holds the HTTP handlers. Handlers decode and validate the request, call one
// application service and render its result; role checks live in the services.
type Server struct {
	svc      Services
	idem     idempotency.Store
	log      zerolog.Logger
	validate *validator.Validate
}

func NewServer(svc Services, idem idempotency.Store, log zerolog.Logger) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{svc: svc, idem: idem, log: log, validate: v}
}

// resolveActor maps the authenticated subject onto a roster actor for every handler below it.
func (s *Server) resolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, ok := SubjectFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "missing subject", nil)
			return
		}
		actor, err := s.svc.Members.ResolveActor(r.Context(), domain.SubjectID(sub))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (s *Server) actor(r *http.Request) domain.Actor {
	a, _ := ActorFromContext(r.Context())
	return a
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeAppError(w, r, s.log, err)
}

// decode reads a JSON body into dst and runs struct validation. On failure it writes a
// 422 VALIDATION_ERROR response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "missing request body"
		}
		writeError(w, r, http.StatusUnprocessableEntity, apperr.CodeValidation, msg, map[string]any{"body": err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		details := map[string]any{}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				details[fe.Field()] = validationReason(fe)
			}
		}
		writeError(w, r, http.StatusUnprocessableEntity, apperr.CodeValidation, "input validation failed", details)
		return false
	}
	return true
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
