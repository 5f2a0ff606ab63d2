package httpapi

import (
	"context"
	"net/http"
	"strings"
)

const (
	codeUnauthorized   = "UNAUTHORIZED"
	debugSubjectHeader = "X-Debug-Subject"
)

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// subjectFunc returns the caller's subject, or "" and the reason for a 401.
type subjectFunc func(r *http.Request) (subject, reason string)

// authenticate stores the extracted subject in the request context. /healthz is public.
func authenticate(extract subjectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			sub, reason := extract(r)
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, codeUnauthorized, reason, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}

// NewAuthMiddleware requires "Authorization: Bearer <token>" and verifies the token.
func NewAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(func(r *http.Request) (string, string) {
		authz := r.Header.Get("Authorization")
		if authz == "" {
			return "", "missing Authorization header"
		}
		scheme, raw, ok := strings.Cut(authz, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", "malformed Authorization header"
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return "", "missing bearer token"
		}
		sub, err := v.Verify(r.Context(), raw)
		if err != nil || sub == "" {
			return "", "invalid token"
		}
		return sub, ""
	})
}

// NewDevAuthMiddleware trusts the X-Debug-Subject header, falling back to defaultSubject.
// Local development only.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	fallback := strings.TrimSpace(defaultSubject)
	return authenticate(func(r *http.Request) (string, string) {
		if sub := strings.TrimSpace(r.Header.Get(debugSubjectHeader)); sub != "" {
			return sub, ""
		}
		return fallback, "missing subject (set " + debugSubjectHeader + ")"
	})
}
