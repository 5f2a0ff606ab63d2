package httpapi

import "net/http"

type askAdvisorRequest struct {
	Topic string `json:"topic" validate:"required"`
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.Dashboard.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardFromApp(o))
}

func (s *Server) askAdvisor(w http.ResponseWriter, r *http.Request) {
	var req askAdvisorRequest
	if !s.decode(w, r, &req) {
		return
	}
	answer, err := s.svc.Advisor.Ask(r.Context(), req.Topic)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdvisorResponse{Answer: answer})
}
