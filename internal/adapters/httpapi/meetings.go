package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chibo-dx/roster-api/internal/app/meetings"
	"github.com/chibo-dx/roster-api/internal/domain"
)

type meetingRequest struct {
	Title          string `json:"title" validate:"required,max=255"`
	Date           string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Type           string `json:"type,omitempty"`
	Content        string `json:"content,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	AttendeesCount int    `json:"attendeesCount" validate:"gte=0"`
	TotalMembers   int    `json:"totalMembers" validate:"gte=0"`
}

func (m meetingRequest) input() meetings.Input {
	return meetings.Input{
		Title:          m.Title,
		Date:           m.Date,
		Type:           domain.MeetingType(m.Type),
		Content:        m.Content,
		Resolution:     m.Resolution,
		AttendeesCount: m.AttendeesCount,
		TotalMembers:   m.TotalMembers,
	}
}

func meetingIDParam(r *http.Request) domain.MeetingID {
	return domain.MeetingID(chi.URLParam(r, "meetingId"))
}

func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	ms, err := s.svc.Meetings.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Meeting, 0, len(ms))
	for _, m := range ms {
		out = append(out, meetingFromDomain(m))
	}
	writeJSON(w, http.StatusOK, MeetingsResponse{Meetings: out})
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Meetings.Get(r.Context(), meetingIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MeetingResponse{Meeting: meetingFromDomain(m)})
}

func (s *Server) createMeeting(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.svc.Meetings.Create(r.Context(), s.actor(r), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MeetingResponse{Meeting: meetingFromDomain(m)})
}

func (s *Server) updateMeeting(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.svc.Meetings.Update(r.Context(), s.actor(r), meetingIDParam(r), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MeetingResponse{Meeting: meetingFromDomain(m)})
}

func (s *Server) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Meetings.Delete(r.Context(), s.actor(r), meetingIDParam(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
