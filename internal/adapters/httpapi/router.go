package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterOptions struct {
	// AuthMiddleware authenticates the caller and stores its subject. Required.
	AuthMiddleware func(http.Handler) http.Handler
	Logger         zerolog.Logger
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewRequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	// Health endpoint is used for infra checks and needs no auth.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(opts.AuthMiddleware)
		r.Use(s.resolveActor)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.listMembers)
			r.Post("/", s.createMember)
			r.Get("/search", s.searchMembers)
			r.Get("/me", s.getMyProfile)
			r.Post("/me/edit-requests", s.submitMyEditRequest)

			r.Route("/{memberId}", func(r chi.Router) {
				r.Get("/", s.getMember)
				r.Patch("/", s.patchMember)
				r.Post("/transfer", s.transferMember)
				r.Post("/make-official", s.makeOfficial)
				r.Put("/subject", s.bindSubject)
				r.Delete("/subject", s.unbindSubject)
				r.Get("/edit-request", s.getMemberPendingRequest)
				r.Post("/edit-requests", s.submitEditRequestFor)
			})
		})

		r.Route("/edit-requests", func(r chi.Router) {
			r.Get("/", s.listEditRequests)
			r.Get("/{requestId}", s.reviewEditRequest)
			r.Post("/{requestId}/approve", s.approveEditRequest)
			r.Post("/{requestId}/reject", s.rejectEditRequest)
		})

		r.Route("/fees", func(r chi.Router) {
			r.Get("/", s.listFees)
			r.Post("/", s.addFee)
			r.Post("/months", s.addFeeMonth)
			r.Patch("/{feeId}", s.updateFee)
			r.Post("/{feeId}/toggle-paid", s.toggleFeePaid)
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", s.listMeetings)
			r.Post("/", s.createMeeting)
			r.Get("/{meetingId}", s.getMeeting)
			r.Put("/{meetingId}", s.updateMeeting)
			r.Delete("/{meetingId}", s.deleteMeeting)
		})

		r.Get("/dashboard", s.getDashboard)
		r.Post("/advisor/ask", s.askAdvisor)
	})

	return r
}
