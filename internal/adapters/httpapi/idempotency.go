package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

const idempotencyKeyHeader = "Idempotency-Key"

// idempotentCreate guards a create-style handler with the Idempotency-Key header.
//
// A retry with the same key, route, subject and body replays the stored 201 response.
// The same key with a different body is rejected with 409 IDEMPOTENCY_KEY_REUSE.
// Without the header, or without a store, create runs unguarded.
func (s *Server) idempotentCreate(w http.ResponseWriter, r *http.Request, route string, body any, create func() (any, error)) {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" || s.idem == nil {
		s.respondCreated(w, r, create)
		return
	}
	ctx := r.Context()

	bodyHash, err := hashBody(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sub, _ := SubjectFromContext(ctx)
	metaFP := idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		Subject:  domain.SubjectID(sub),
		Method:   r.Method,
		Route:    route,
		BodyHash: "",
	}
	if meta, ok, err := s.idem.Get(ctx, metaFP); err != nil {
		s.fail(w, r, err)
		return
	} else if ok {
		if string(meta.Body) != bodyHash {
			writeError(w, r, http.StatusConflict, apperr.CodeIdempotencyKeyReuse, "idempotency key reuse with different payload", nil)
			return
		}
	} else {
		s.remember(r, metaFP, idempotency.Record{
			StatusCode:  0,
			ContentType: "text/plain",
			Body:        []byte(bodyHash),
			CreatedAt:   time.Now().UTC(),
		})
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	if rec, ok, err := s.idem.Get(ctx, respFP); err != nil {
		s.fail(w, r, err)
		return
	} else if ok && rec.StatusCode == http.StatusCreated && strings.HasPrefix(rec.ContentType, "application/json") {
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	resp, err := create()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b = append(b, '\n')
	s.remember(r, respFP, idempotency.Record{
		StatusCode:  http.StatusCreated,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   time.Now().UTC(),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
}

// remember stores rec under fp. A failed write only costs replay on retry, so the
// request still succeeds.
func (s *Server) remember(r *http.Request, fp idempotency.Fingerprint, rec idempotency.Record) {
	if err := s.idem.Put(r.Context(), fp, rec); err != nil {
		s.log.Warn().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("route", fp.Route).
			Msg("idempotency record not stored")
	}
}

func (s *Server) respondCreated(w http.ResponseWriter, r *http.Request, create func() (any, error)) {
	resp, err := create()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// hashBody hashes the decoded request so formatting differences do not count as a new payload.
func hashBody(body any) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
