package httpapi

import (
	"context"

	"github.com/chibo-dx/roster-api/internal/domain"
)

type subjectKey struct{}

type requestInfoKey struct{}

// requestInfo is shared between the request logger and the auth middleware, which
// runs further in and cannot hand values back through the request context.
type requestInfo struct {
	subject string
}

func WithSubject(ctx context.Context, subjectID string) context.Context {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.subject = subjectID
	}
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok && v != ""
}

func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey{}, info), info
}

type actorKey struct{}

func withActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the roster actor resolved for the authenticated subject.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(domain.Actor)
	return a, ok
}
