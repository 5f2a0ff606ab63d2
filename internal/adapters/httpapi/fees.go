package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
)

type addFeeRequest struct {
	MemberId string `json:"memberId" validate:"required"`
	Month    int    `json:"month" validate:"required,gte=1,lte=12"`
	Year     int    `json:"year" validate:"required,gte=1930,lte=9999"`
	Amount   int64  `json:"amount" validate:"gte=0"`
}

type addMonthRequest struct {
	Month  int   `json:"month" validate:"required,gte=1,lte=12"`
	Year   int   `json:"year" validate:"required,gte=1930,lte=9999"`
	Amount int64 `json:"amount" validate:"gte=0"`
}

type updateFeeRequest struct {
	Amount     *int64  `json:"amount,omitempty" validate:"omitempty,gte=0"`
	MemberName *string `json:"memberName,omitempty" validate:"omitempty,min=1,max=255"`
}

func feeIDParam(r *http.Request) domain.FeeID {
	return domain.FeeID(chi.URLParam(r, "feeId"))
}

func (s *Server) listFees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := feerepo.Filter{MemberID: domain.MemberID(q.Get("memberId"))}
	details := map[string]any{}
	for name, dst := range map[string]*int{"year": &filter.Year, "month": &filter.Month} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			details[name] = "must be an integer"
			continue
		}
		*dst = n
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, apperr.CodeValidation, "invalid fee filter", details)
		return
	}
	rep, err := s.svc.Fees.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feesReportFromApp(rep))
}

func (s *Server) addFee(w http.ResponseWriter, r *http.Request) {
	var req addFeeRequest
	if !s.decode(w, r, &req) {
		return
	}
	f, err := s.svc.Fees.AddFee(r.Context(), s.actor(r), fees.AddFeeInput{
		MemberID: domain.MemberID(req.MemberId),
		Month:    req.Month,
		Year:     req.Year,
		Amount:   req.Amount,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, FeeResponse{Fee: feeFromDomain(f)})
}

// addFeeMonth opens a dues month for every active member at once.
func (s *Server) addFeeMonth(w http.ResponseWriter, r *http.Request) {
	var req addMonthRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.svc.Fees.AddMonth(r.Context(), s.actor(r), req.Year, req.Month, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feesReportFromApp(fees.Report{Fees: created, Summary: domain.SummarizeFees(created)}))
}

func (s *Server) updateFee(w http.ResponseWriter, r *http.Request) {
	var req updateFeeRequest
	if !s.decode(w, r, &req) {
		return
	}
	f, err := s.svc.Fees.UpdateFee(r.Context(), s.actor(r), feeIDParam(r), fees.UpdateFeeInput{
		Amount:     req.Amount,
		MemberName: req.MemberName,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeeResponse{Fee: feeFromDomain(f)})
}

func (s *Server) toggleFeePaid(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.Fees.TogglePaid(r.Context(), s.actor(r), feeIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeeResponse{Fee: feeFromDomain(f)})
}
