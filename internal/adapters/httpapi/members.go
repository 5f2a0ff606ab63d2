package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/domain"
)

type createMemberRequest struct {
	Fields  map[string]string `json:"fields" validate:"required,min=1"`
	Subject *string           `json:"subject,omitempty" validate:"omitempty,min=1,max=255"`
}

type patchMemberRequest struct {
	// A null value clears the field.
	Changes map[string]*string `json:"changes" validate:"required,min=1"`
	Version int64              `json:"version" validate:"gte=0"`
}

type makeOfficialRequest struct {
	OfficialDate    string `json:"officialDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PartyCardNumber string `json:"partyCardNumber,omitempty" validate:"max=64"`
}

type bindSubjectRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
}

func memberIDParam(r *http.Request) domain.MemberID {
	return domain.MemberID(chi.URLParam(r, "memberId"))
}

// rawChanges flattens a JSON changes object; null means clear, which the domain spells "".
func rawChanges(in map[string]*string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = *v
	}
	return out
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	includeTransferred := false
	if v := r.URL.Query().Get("includeTransferred"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, apperr.CodeValidation, "invalid includeTransferred", map[string]any{"includeTransferred": "must be a boolean"})
			return
		}
		includeTransferred = b
	}
	ms, err := s.svc.Members.ListMembers(r.Context(), includeTransferred)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MembersResponse{Members: memberSummariesFromDomain(ms)})
}

func (s *Server) searchMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.svc.Members.SearchMembers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MembersResponse{Members: memberSummariesFromDomain(ms)})
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := members.CreateMemberInput{Fields: req.Fields}
	if req.Subject != nil {
		sub := domain.SubjectID(*req.Subject)
		in.Subject = &sub
	}
	m, err := s.svc.Members.CreateMember(r.Context(), s.actor(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) getMyProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Members.GetMyProfile(r.Context(), s.actor(r).Subject)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileFromApp(p))
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Members.GetMember(r.Context(), memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) patchMember(w http.ResponseWriter, r *http.Request) {
	var req patchMemberRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.svc.Members.DirectEdit(r.Context(), s.actor(r), memberIDParam(r), rawChanges(req.Changes), req.Version)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) transferMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Members.Transfer(r.Context(), s.actor(r), memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) makeOfficial(w http.ResponseWriter, r *http.Request) {
	var req makeOfficialRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.svc.Members.MakeOfficial(r.Context(), s.actor(r), memberIDParam(r), members.MakeOfficialInput{
		OfficialDate:    req.OfficialDate,
		PartyCardNumber: req.PartyCardNumber,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) bindSubject(w http.ResponseWriter, r *http.Request) {
	var req bindSubjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.svc.Members.BindSubject(r.Context(), s.actor(r), memberIDParam(r), domain.SubjectID(req.Subject))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) unbindSubject(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Members.UnbindSubject(r.Context(), s.actor(r), memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}
