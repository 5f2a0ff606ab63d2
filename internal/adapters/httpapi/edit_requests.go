package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/chibo-dx/roster-api/internal/domain"
)

type submitEditRequestRequest struct {
	// A null value asks for the field to be cleared.
	Changes map[string]*string `json:"changes" validate:"required,min=1"`
}

func (s *Server) submitMyEditRequest(w http.ResponseWriter, r *http.Request) {
	var req submitEditRequestRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.idempotentCreate(w, r, "/members/me/edit-requests", req, func() (any, error) {
		er, err := s.svc.EditRequests.Submit(r.Context(), s.actor(r), rawChanges(req.Changes))
		if err != nil {
			return nil, err
		}
		return EditRequestResponse{EditRequest: editRequestFromDomain(er)}, nil
	})
}

func (s *Server) submitEditRequestFor(w http.ResponseWriter, r *http.Request) {
	var req submitEditRequestRequest
	if !s.decode(w, r, &req) {
		return
	}
	memberID := memberIDParam(r)
	s.idempotentCreate(w, r, "/members/{memberId}/edit-requests", struct {
		MemberID string                   `json:"memberId"`
		Body     submitEditRequestRequest `json:"body"`
	}{string(memberID), req}, func() (any, error) {
		er, err := s.svc.EditRequests.SubmitFor(r.Context(), s.actor(r), memberID, rawChanges(req.Changes))
		if err != nil {
			return nil, err
		}
		return EditRequestResponse{EditRequest: editRequestFromDomain(er)}, nil
	})
}

// getMemberPendingRequest returns the member's oldest pending request, or null.
// Only the member and resolvers may read it.
func (s *Server) getMemberPendingRequest(w http.ResponseWriter, r *http.Request) {
	er, ok, err := s.svc.EditRequests.PendingFor(r.Context(), s.actor(r), memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := PendingEditRequestResponse{EditRequest: nullable.NewNullNullable[EditRequest]()}
	if ok {
		resp.EditRequest = nullable.NewNullableWithValue(editRequestFromDomain(er))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listEditRequests(w http.ResponseWriter, r *http.Request) {
	rs, err := s.svc.EditRequests.ListPending(r.Context(), s.actor(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EditRequestsResponse{EditRequests: editRequestsFromDomain(rs)})
}

func requestIDParam(r *http.Request) domain.EditRequestID {
	return domain.EditRequestID(chi.URLParam(r, "requestId"))
}

func (s *Server) reviewEditRequest(w http.ResponseWriter, r *http.Request) {
	rv, err := s.svc.EditRequests.Review(r.Context(), s.actor(r), requestIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewFromApp(rv))
}

func (s *Server) approveEditRequest(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.EditRequests.Approve(r.Context(), s.actor(r), requestIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionFromApp(res))
}

func (s *Server) rejectEditRequest(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.EditRequests.Reject(r.Context(), s.actor(r), requestIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionFromApp(res))
}
